// Package apperror defines the error kinds shared by the repository, service
// and handler layers. Each kind is a sentinel wrapped by *AppError, so callers
// classify with errors.Is and read the human message with errors.As.
//
// HTTP handlers map kinds to status codes (see handler/response.go):
//
//	ErrValidation  → 400
//	ErrNotFound    → 404
//	ErrConflict    → 409
//	ErrUnavailable → 500
//	anything else  → 500 with a generic message
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound reports a missing row. id is formatted with %v so both numeric and
// string identifiers read naturally.
func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, detail string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict: %s", resource, detail),
	}
}

// Unavailable reports a transient lack of capacity, e.g. an exhausted
// connection pool. cause is kept in the chain for logging.
func Unavailable(message string, cause error) *AppError {
	err := ErrUnavailable
	if cause != nil {
		err = errors.Join(ErrUnavailable, cause)
	}
	return &AppError{
		Err:     err,
		Message: message,
	}
}
