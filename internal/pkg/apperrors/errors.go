// Package apperrors defines the error vocabulary shared by the domain
// services, repositories and HTTP layer. Handlers map these sentinels to
// status codes; everything below them wraps with %w so errors.Is keeps
// working across layers.
package apperrors

import (
	"errors"
	"fmt"
)

// Generic sentinels.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrValidation      = errors.New("validation failed")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrConflict        = errors.New("resource conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrDatabase        = errors.New("database error")
	ErrInternalServer  = errors.New("internal server error")
)

// Credit lifecycle sentinels. A settled credit refuses further payments; a
// written-off credit refuses everything except reads.
var (
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrCreditSettled        = errors.New("credit is already settled")
	ErrCreditWrittenOff     = errors.New("credit has been written off")
)

// ValidationError carries the offending field so the HTTP layer can point at
// it in the error body.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// NewValidationError builds a field-level validation error that matches both
// ErrValidation and *ValidationError.
func NewValidationError(field, message string) error {
	return fmt.Errorf("%w: %w", ErrValidation, &ValidationError{Field: field, Message: message})
}

// AppError attaches a machine-readable code to an error chain.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// WrapDatabaseError tags a storage failure with DB_ERROR while keeping both
// ErrDatabase and the driver error reachable through errors.Is.
func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}
