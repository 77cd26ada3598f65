package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is a user-facing failure with a stable code.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeInternalError     = "INTERNAL_ERROR"
	ErrCodeAlreadyExists     = "ALREADY_EXISTS"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func Validation(message string) *AppError { return New(ErrCodeValidation, message) }

func NotFound(message string) *AppError { return New(ErrCodeNotFound, message) }

func Forbidden(message string) *AppError { return New(ErrCodeForbidden, message) }

func Conflict(message string) *AppError { return New(ErrCodeAlreadyExists, message) }

func Unauthorized(message string) *AppError { return New(ErrCodeUnauthorized, message) }

// Internal wraps an infrastructure failure behind a generic message.
func Internal(err error) *AppError {
	return Wrap(err, ErrCodeInternalError, "internal error")
}

// CodeOf returns the AppError code in err's chain, or INTERNAL_ERROR.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
