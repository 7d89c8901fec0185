package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrBusy marks resource-contention failures (the registration workbook
	// held open by another program). Handlers keep the status at 500 but
	// pass the actionable message through to the client verbatim, unlike
	// generic internal errors.
	ErrBusy = errors.New("resource busy")
)

type AppError struct {
	Err     error  // sentinel category
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, key string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, key),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unauthorized returns an AppError for a failed admin credential or token
// check. HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Busy returns an AppError for a store file that is locked by another
// process. The message tells the caller what to do about it.
func Busy(message string) *AppError {
	return &AppError{
		Err:     ErrBusy,
		Message: message,
	}
}
