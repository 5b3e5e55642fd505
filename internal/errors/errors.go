// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (configuration,
// backend, prime table, correctness) and for carrying the underlying cause.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// All error types carrying a cause implement Unwrap() to support errors.Is()
// and errors.As().
package apperrors

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// Application exit codes define the standard exit statuses for the application.
// A batch run in which some inputs could not be factored still exits with
// ExitSuccess; the per-input outcome is part of the report, not the status.
const (
	ExitSuccess       = 0   // Indicates successful execution.
	ExitErrorGeneric  = 1   // Indicates a generic error.
	ExitErrorTimeout  = 2   // Indicates the operation timed out.
	ExitErrorBackend  = 3   // Indicates the compute backend could not be initialized.
	ExitErrorConfig   = 4   // Indicates a configuration error.
	ExitErrorPrimes   = 5   // Indicates the prime table could not be loaded or generated.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// Sentinel errors reported by the factorization search.
var (
	// ErrSearchExhausted is returned when the bound step has been halved
	// below its minimum without producing a usable prime factor.
	ErrSearchExhausted = errors.New("search exhausted: bound step fell below minimum")

	// ErrBoundCeiling is returned by an attempt whose bound reached the
	// configured maximum without isolating a factor.
	ErrBoundCeiling = errors.New("bound ceiling reached without a factor")
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// PreconditionError signals a violated internal precondition, e.g. an
// exponent requested for a bound the prime table does not cover. It is a
// programmer error and is raised with panic rather than returned.
type PreconditionError struct {
	Message string
}

func (e PreconditionError) Error() string { return "precondition violated: " + e.Message }

// NewPreconditionError creates a PreconditionError with a formatted message.
func NewPreconditionError(format string, a ...any) error {
	return PreconditionError{Message: fmt.Sprintf(format, a...)}
}

// BackendInitError reports that a compute backend could not be brought up.
type BackendInitError struct {
	// Backend is the registry name of the backend that failed.
	Backend string
	// Cause is the reason initialization failed.
	Cause error
}

// Error returns the error message for a BackendInitError.
func (e BackendInitError) Error() string {
	return fmt.Sprintf("backend %q initialization failed: %v", e.Backend, e.Cause)
}

// Unwrap returns the underlying cause.
func (e BackendInitError) Unwrap() error { return e.Cause }

// NewBackendInitError creates a BackendInitError.
func NewBackendInitError(backend string, cause error) error {
	return BackendInitError{Backend: backend, Cause: cause}
}

// CorrectnessError reports a claimed prime factor that does not divide the
// number under factorization. It aborts the factorization of that input.
type CorrectnessError struct {
	Factor *big.Int
	N      *big.Int
}

// Error returns the error message for a CorrectnessError.
func (e CorrectnessError) Error() string {
	return fmt.Sprintf("incorrect factor 0x%s: does not divide 0x%s", e.Factor.Text(16), e.N.Text(16))
}

// PrimeTableError reports a failure to load, generate or persist the prime table.
type PrimeTableError struct {
	// Path is the cache file involved, empty when the failure is not file related.
	Path string
	// Cause is the underlying error.
	Cause error
}

// Error returns the error message for a PrimeTableError.
func (e PrimeTableError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("prime table: %v", e.Cause)
	}
	return fmt.Sprintf("prime table %s: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e PrimeTableError) Unwrap() error { return e.Cause }

// ServerError represents errors that occur in the HTTP server component.
// It wraps an underlying error with additional context specific to the server operation.
type ServerError struct {
	// Message is a descriptive message about the server error.
	Message string
	// Cause is the underlying error, if any.
	Cause error
}

// Error returns the error message for a ServerError.
// It combines the descriptive message and the underlying cause if present.
func (e ServerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e ServerError) Unwrap() error { return e.Cause }

// NewServerError creates a new ServerError with a message and optional cause.
func NewServerError(message string, cause error) error {
	return ServerError{Message: message, Cause: cause}
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// It returns nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ValidationError represents an error due to invalid input validation.
// It is used for API request validation and input parsing.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string
	// Message describes why validation failed.
	Message string
	// Value is the invalid value (optional, may be nil).
	Value any
}

// Error returns the error message for a ValidationError.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string, value any) error {
	return ValidationError{Field: field, Message: message, Value: value}
}
