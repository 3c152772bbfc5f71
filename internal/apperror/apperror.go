// Package apperror carries the outcome of a failed request stage. Handlers and
// gates return these values and a single writer maps them to HTTP responses.
package apperror

import (
	"errors"
	"net/http"
)

// InternalMessage is the only message clients see for unexpected failures.
const InternalMessage = "Internal server error"

// Error is a failure with a client-facing status and message.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an Error with the given status and message.
func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap returns an Error that keeps cause for logging and detail disclosure.
func Wrap(status int, message string, cause error) *Error {
	return &Error{Status: status, Message: message, Err: cause}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }
func Conflict(message string) *Error     { return New(http.StatusConflict, message) }

// TooLarge reports a request body over the configured limit.
func TooLarge(message string) *Error { return New(http.StatusRequestEntityTooLarge, message) }

// Internal wraps an unexpected error. The cause is never used as the client message.
func Internal(cause error) *Error {
	return Wrap(http.StatusInternalServerError, InternalMessage, cause)
}

// From resolves any error to an *Error. Unknown errors become Internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// Detail returns the text disclosed in the "error" field outside production.
func (e *Error) Detail() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}
