// Package apperr carries the errors a request can end with and the HTTP
// status each one maps to.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used across all layers.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is an expected failure with a message that is safe to show a client.
type Error struct {
	Status  int
	Message string
	Details []FieldError
	kind    error
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	if len(e.Details) == 1 {
		return fmt.Sprintf("%s: %s %s", e.Message, e.Details[0].Field, e.Details[0].Message)
	}
	return e.Message
}

// Is reports whether target is the sentinel this error was built from.
func (e *Error) Is(target error) bool {
	return e.kind == target
}

func (e *Error) Unwrap() error { return e.cause }

func newError(status int, kind error, message string) *Error {
	return &Error{Status: status, Message: message, kind: kind}
}

func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, ErrBadRequest, message)
}

func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, ErrUnauthorized, message)
}

func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, ErrForbidden, message)
}

func NotFound(message string) *Error {
	return newError(http.StatusNotFound, ErrNotFound, message)
}

func TooManyRequests(message string) *Error {
	return newError(http.StatusTooManyRequests, ErrTooManyRequests, message)
}

// Validation builds the 400 returned for field-level input problems.
func Validation(details ...FieldError) *Error {
	e := newError(http.StatusBadRequest, ErrValidation, "Validation failed")
	e.Details = details
	return e
}

// Internal wraps an unexpected failure. The cause is logged, never sent.
func Internal(cause error) *Error {
	e := newError(http.StatusInternalServerError, ErrInternal, "Internal server error")
	e.cause = cause
	return e
}

// From converts any error into an *Error. Unknown errors become Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Response is the JSON body of every failed request.
type Response struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *Error) Body() Response {
	return Response{Error: e.Message, Details: e.Details}
}
