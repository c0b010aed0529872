package domain

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one variant of the closed ServiceError set.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindValidation
	KindBusinessRule
	KindDatabase
	KindExternalService
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindBusinessRule:
		return "BusinessRule"
	case KindDatabase:
		return "Database"
	case KindExternalService:
		return "ExternalService"
	case KindUnknown:
		return "Unknown"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ServiceError is a domain-level failure. The set of implementations is
// closed: only the types in this file satisfy it.
type ServiceError interface {
	error
	Kind() ErrorKind
	serviceError()
}

// NotFoundError is returned when the requested entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Kind() ErrorKind { return KindNotFound }
func (*NotFoundError) serviceError()     {}

// ValidationError is returned when a caller-supplied value violates a domain rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error for field '%s': %s", e.Field, e.Reason)
}

func (e *ValidationError) Kind() ErrorKind { return KindValidation }
func (*ValidationError) serviceError()     {}

// BusinessRuleError is returned when a cross-entity invariant blocks the operation.
type BusinessRuleError struct {
	Rule    string
	Details string
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("Business rule violation: %s - %s", e.Rule, e.Details)
}

func (e *BusinessRuleError) Kind() ErrorKind { return KindBusinessRule }
func (*BusinessRuleError) serviceError()     {}

// DatabaseError is returned when the store fails unexpectedly.
type DatabaseError struct {
	Operation string
	Cause     string
	Err       error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("Database error during %s: %s", e.Operation, e.Cause)
}

func (e *DatabaseError) Unwrap() error   { return e.Err }
func (e *DatabaseError) Kind() ErrorKind { return KindDatabase }
func (*DatabaseError) serviceError()     {}

// ExternalServiceError is returned when a peer service call fails or times out.
type ExternalServiceError struct {
	Service   string
	Operation string
	Cause     string
	Err       error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("Error calling %s during %s: %s", e.Service, e.Operation, e.Cause)
}

func (e *ExternalServiceError) Unwrap() error   { return e.Err }
func (e *ExternalServiceError) Kind() ErrorKind { return KindExternalService }
func (*ExternalServiceError) serviceError()     {}

// UnknownError is the last-resort bucket for unclassified failures.
type UnknownError struct {
	Cause string
	Err   error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("Unknown error: %s", e.Cause)
}

func (e *UnknownError) Unwrap() error   { return e.Err }
func (e *UnknownError) Kind() ErrorKind { return KindUnknown }
func (*UnknownError) serviceError()     {}

// NewDatabaseError wraps a store failure for the given operation.
func NewDatabaseError(operation string, err error) *DatabaseError {
	return &DatabaseError{Operation: operation, Cause: causeOf(err), Err: err}
}

// NewUnknownError wraps an unclassified failure.
func NewUnknownError(err error) *UnknownError {
	return &UnknownError{Cause: causeOf(err), Err: err}
}

func causeOf(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// ProductServiceError is the single error type returned by the product service.
type ProductServiceError struct {
	ServiceError ServiceError
}

func (e *ProductServiceError) Error() string { return e.ServiceError.Error() }
func (e *ProductServiceError) Unwrap() error { return e.ServiceError }

// CategoryServiceError is the single error type returned by the category service.
type CategoryServiceError struct {
	ServiceError ServiceError
}

func (e *CategoryServiceError) Error() string { return e.ServiceError.Error() }
func (e *CategoryServiceError) Unwrap() error { return e.ServiceError }

// NewProductServiceError wraps se for the product domain.
func NewProductServiceError(se ServiceError) error {
	return &ProductServiceError{ServiceError: se}
}

// NewCategoryServiceError wraps se for the category domain.
func NewCategoryServiceError(se ServiceError) error {
	return &CategoryServiceError{ServiceError: se}
}

// AsServiceError extracts the ServiceError carried by err. Errors that carry
// none are reported as an UnknownError so the result is always usable.
func AsServiceError(err error) ServiceError {
	if err == nil {
		return nil
	}
	var se ServiceError
	if errors.As(err, &se) {
		return se
	}
	return NewUnknownError(err)
}

// KindOf reports the ErrorKind of err, or zero for a nil error.
func KindOf(err error) ErrorKind {
	se := AsServiceError(err)
	if se == nil {
		return 0
	}
	return se.Kind()
}
