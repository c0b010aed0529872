package transport

import (
	"net/http"

	"catalog-service/internal/domain"
	"catalog-service/internal/logger"
	"catalog-service/internal/middleware"

	"go.uber.org/zap"
)

const (
	msgDatabaseError   = "A database error occurred."
	msgExternalService = "A required external service is currently unavailable. Please try again later."
	msgUnexpected      = "An unexpected error occurred."
)

// statusFor maps a ServiceError onto an HTTP status and client-facing
// message. Store and unknown failures never leak their cause.
func statusFor(se domain.ServiceError) (int, string) {
	switch e := se.(type) {
	case *domain.NotFoundError:
		return http.StatusNotFound, e.Error()
	case *domain.ValidationError:
		return http.StatusBadRequest, e.Error()
	case *domain.BusinessRuleError:
		return http.StatusBadRequest, e.Error()
	case *domain.DatabaseError:
		return http.StatusInternalServerError, msgDatabaseError
	case *domain.ExternalServiceError:
		return http.StatusServiceUnavailable, msgExternalService
	case *domain.UnknownError:
		return http.StatusInternalServerError, msgUnexpected
	default:
		return http.StatusInternalServerError, msgUnexpected
	}
}

// respondWithServiceError logs err and writes the mapped error response
func respondWithServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, operation string, resourceID string) {
	se := domain.AsServiceError(err)
	status, message := statusFor(se)

	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("kind", se.Kind().String()),
		zap.Int("status", status),
		zap.Error(err),
	}
	if resourceID != "" {
		fields = append(fields, zap.String("resource_id", resourceID))
	}
	logger.FromContext(r.Context(), log).Warn("Service error", fields...)

	middleware.RespondWithError(w, status, message)
}

// respondWithDecodeError writes a 400 for a body that failed to decode or validate
func respondWithDecodeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	logger.FromContext(r.Context(), log).Debug("Request validation failed", zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
}
