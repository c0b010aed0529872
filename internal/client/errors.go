package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"catalog-service/internal/domain"
)

// StatusError reports a peer response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Received status %d - %s", e.StatusCode, e.Body)
}

// FailureKind classifies a failure that happened before a response arrived.
type FailureKind int

const (
	FailureNetwork FailureKind = iota
	FailureConnectionRefused
	FailureTimeout
)

// TransportError reports a failure before any response was received.
type TransportError struct {
	Kind FailureKind
	Err  error
}

func (e *TransportError) Error() string {
	switch e.Kind {
	case FailureConnectionRefused:
		return "Connection refused or network issue"
	case FailureTimeout:
		return "Read timeout"
	default:
		return fmt.Sprintf("Request error: %v", e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func classifyTransportError(err error) *TransportError {
	var netErr net.Error
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return &TransportError{Kind: FailureConnectionRefused, Err: err}
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, os.ErrDeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &TransportError{Kind: FailureTimeout, Err: err}
	default:
		return &TransportError{Kind: FailureNetwork, Err: err}
	}
}

// ToServiceError collapses a peer call failure into an ExternalService error
// for service during operation.
func ToServiceError(service, operation string, err error) *domain.ExternalServiceError {
	var (
		statusErr    *StatusError
		transportErr *TransportError
		cause        string
	)
	switch {
	case errors.As(err, &statusErr):
		cause = statusErr.Error()
	case errors.As(err, &transportErr):
		cause = transportErr.Error()
	default:
		cause = fmt.Sprintf("Unknown communication error: %v", err)
	}
	return &domain.ExternalServiceError{
		Service:   service,
		Operation: operation,
		Cause:     cause,
		Err:       err,
	}
}
