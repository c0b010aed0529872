package middleware

import (
	"net/http"
	"slices"

	"catalog-service/internal/logger"

	"go.uber.org/zap"
)

// RequireAdmin middleware ensures the caller has the admin role
func RequireAdmin(log *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole([]string{RoleAdmin}, log)
}

// RequireRole middleware ensures the caller has one of the specified roles
func RequireRole(allowedRoles []string, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLog := logger.FromContext(r.Context(), log)

			role, ok := GetRole(r.Context())
			if !ok {
				reqLog.Warn("Role not found in context")
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			if !slices.Contains(allowedRoles, role) {
				reqLog.Warn("Caller role not authorized",
					zap.String("role", role),
					zap.Strings("allowed_roles", allowedRoles),
				)
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
