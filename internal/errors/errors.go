// Package errors provides standardized domain errors with codes for the
// Florilegium pipeline.
//
// Usage:
//
//	// In services - return typed errors
//	if len(matches) > 1 {
//	    return errors.AmbiguousMatchf("%d candidates tied for %q", len(matches), title)
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrDataLoss) {
//	    // abort the whole pipeline
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the pipeline.
const (
	CodeNotFound       Code = "NOT_FOUND"
	CodeValidation     Code = "VALIDATION"
	CodeAmbiguousMatch Code = "AMBIGUOUS_MATCH"
	CodeDataLoss       Code = "DATA_LOSS"
	CodeLookupFailed   Code = "LOOKUP_FAILED"
	CodeInternal       Code = "INTERNAL"
)

// Fatal reports whether an error with this code must abort the whole
// pipeline rather than just the current record or rule.
func (c Code) Fatal() bool {
	return c == CodeDataLoss
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error  // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrAmbiguousMatch = &Error{Code: CodeAmbiguousMatch, Message: "ambiguous match"}
	ErrDataLoss       = &Error{Code: CodeDataLoss, Message: "record count regression"}
	ErrLookupFailed   = &Error{Code: CodeLookupFailed, Message: "lookup failed"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// AmbiguousMatch creates an ambiguous match error.
func AmbiguousMatch(msg string) *Error {
	return &Error{Code: CodeAmbiguousMatch, Message: msg}
}

// AmbiguousMatchf creates an ambiguous match error with formatted message.
func AmbiguousMatchf(format string, args ...any) *Error {
	return &Error{Code: CodeAmbiguousMatch, Message: fmt.Sprintf(format, args...)}
}

// DataLoss creates a data loss error. These abort the pipeline.
func DataLoss(msg string) *Error {
	return &Error{Code: CodeDataLoss, Message: msg}
}

// DataLossf creates a data loss error with formatted message.
func DataLossf(format string, args ...any) *Error {
	return &Error{Code: CodeDataLoss, Message: fmt.Sprintf(format, args...)}
}

// LookupFailed creates a lookup failed error.
func LookupFailed(msg string) *Error {
	return &Error{Code: CodeLookupFailed, Message: msg}
}

// LookupFailedf creates a lookup failed error with formatted message.
func LookupFailedf(format string, args ...any) *Error {
	return &Error{Code: CodeLookupFailed, Message: fmt.Sprintf(format, args...)}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
