package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrExternal     = errors.New("external service error")
)

// AppError is the application-level error type. Services return it; the
// HTTP layer maps it to a status code via errors.Is on the wrapped sentinel.
type AppError struct {
	Err      error    // sentinel (ErrNotFound, ErrValidation, ...)
	Message  string   // Human-readable error message
	Field    string   // Optional: field causing the error
	Messages []string // Optional: full list of field-level messages
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrorList returns every human-readable message carried by the error.
// Validation failures usually carry several; everything else carries one.
func (e *AppError) ErrorList() []string {
	if len(e.Messages) > 0 {
		return e.Messages
	}
	return []string{e.Message}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// ValidationFailures bundles a list of field-level messages into a single
// validation error. Create operations validate everything up front and
// report all problems at once rather than stopping at the first.
func ValidationFailures(messages []string) *AppError {
	return &AppError{
		Err:      ErrValidation,
		Message:  strings.Join(messages, "; "),
		Messages: messages,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// BadRequest returns an AppError for malformed input (e.g. an undecodable
// base64 path segment). HTTP handlers map this to 400 Bad Request.
func BadRequest(message string) *AppError {
	return &AppError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// Unauthorized returns an AppError for a missing, invalid or expired
// credential. HTTP handlers map this to 401 Unauthorized.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// External wraps a failed call to a collaborating service (OAuth provider,
// key-value store, notification topic). The wrapped cause is kept for logs;
// the Message is the only thing safe to show to a caller.
func External(service string, cause error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %s: %v", ErrExternal, service, cause),
		Message: "Something went wrong. Please try again",
	}
}
