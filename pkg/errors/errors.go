// Package errors provides structured errors with stable codes shared by the
// RunPod client, the CLI and the HTTP facade.
//
// A StructuredError carries a machine-readable ErrorCode, a human message, an
// optional wrapped cause and optional context details:
//
//	err := errors.Wrap(errors.ErrCodeUnavailable, "runpod api request failed", cause)
//	if errors.CodeOf(err) == errors.ErrCodeNotFound { ... }
//
// StructuredError implements Unwrap, so errors.Is and errors.As from the
// standard library keep working through it.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode is a stable, machine-readable error classification.
type ErrorCode string

const (
	ErrCodeInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeMethodNotAllowed  ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeUnavailable       ErrorCode = "SERVICE_UNAVAILABLE"
	ErrCodeTimeout           ErrorCode = "TIMEOUT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// StructuredError is an error with a code, message, optional cause and context.
type StructuredError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
func (e *StructuredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError without a cause.
func New(code ErrorCode, message string) *StructuredError {
	return &StructuredError{Code: code, Message: message}
}

// Wrap creates a StructuredError around cause.
func Wrap(code ErrorCode, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause}
}

// WrapWithContext creates a StructuredError around cause with context details.
func WrapWithContext(code ErrorCode, message string, cause error, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Cause: cause, Context: context}
}

// NewWithContext creates a StructuredError without a cause but with context details.
func NewWithContext(code ErrorCode, message string, context map[string]any) *StructuredError {
	return &StructuredError{Code: code, Message: message, Context: context}
}

// CodeOf returns the code of the first StructuredError in err's chain,
// or an empty code if there is none.
func CodeOf(err error) ErrorCode {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable reports whether the operation that produced err may be retried.
// Rate limiting, unavailability and timeouts are transient; everything else is not.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeRateLimitExceeded, ErrCodeUnavailable, ErrCodeTimeout:
		return true
	default:
		return false
	}
}
