// Package errors defines the application error type shared by the referral
// API and its clients. An AppError carries the HTTP status and the message
// shown to callers; the wrapped sentinel keeps errors.Is checks working
// across the HTTP boundary.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for the error classes the API distinguishes.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternal       = errors.New("internal error")
	ErrServiceUnavail = errors.New("service unavailable")
)

// Machine-readable codes.
const (
	CodeNotFound      = "NOT_FOUND"
	CodeAlreadyExists = "ALREADY_EXISTS"
	CodeInvalidInput  = "INVALID_INPUT"
	CodeInternal      = "INTERNAL_ERROR"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
)

type class struct {
	sentinel error
	code     string
	status   int
}

// classes is ordered by lookup priority.
var classes = []class{
	{ErrNotFound, CodeNotFound, http.StatusNotFound},
	{ErrAlreadyExists, CodeAlreadyExists, http.StatusConflict},
	{ErrInvalidInput, CodeInvalidInput, http.StatusBadRequest},
	{ErrServiceUnavail, CodeUnavailable, http.StatusServiceUnavailable},
	{ErrInternal, CodeInternal, http.StatusInternalServerError},
}

// AppError is an error with an HTTP status and a caller-facing message.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(sentinel error, message string) *AppError {
	for _, c := range classes {
		if c.sentinel == sentinel {
			return &AppError{Code: c.code, Message: message, Status: c.status, Err: sentinel}
		}
	}
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError, Err: sentinel}
}

// NotFound returns a 404 whose message reads "<resource> not found", e.g.
// "Referral not found".
func NotFound(resource string) *AppError {
	return newAppError(ErrNotFound, resource+" not found")
}

// AlreadyExists returns a 409 naming the conflicting field.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError(ErrAlreadyExists, fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput returns a 400 with message shown verbatim.
func InvalidInput(message string) *AppError {
	return newAppError(ErrInvalidInput, message)
}

// Internal returns a 500 with a generic message; err is kept for logging only.
func Internal(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Unavailable returns a 503.
func Unavailable(message string) *AppError {
	return newAppError(ErrServiceUnavail, message)
}

// FromStatus rebuilds an AppError from an HTTP status and the message a
// server sent with it. Statuses without a class keep their status text as
// the code and wrap no sentinel.
func FromStatus(status int, message string) *AppError {
	for _, c := range classes {
		if c.status == status {
			return newAppError(c.sentinel, message)
		}
	}
	return &AppError{Code: http.StatusText(status), Message: message, Status: status}
}

// From converts any error into an AppError. An AppError in the chain is
// returned as is. A wrapped sentinel gets that class with the sentinel's own
// text as the message, except invalid input, which keeps the full error
// text. Anything else becomes Internal.
func From(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, c := range classes {
		if c.sentinel == ErrInternal || !errors.Is(err, c.sentinel) {
			continue
		}
		message := c.sentinel.Error()
		if c.sentinel == ErrInvalidInput {
			message = err.Error()
		}
		return &AppError{Code: c.code, Message: message, Status: c.status, Err: err}
	}
	return Internal(err)
}

// HTTPStatus returns the status for err: the AppError's own, else the status
// of the first sentinel it wraps, else 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	for _, c := range classes {
		if errors.Is(err, c.sentinel) {
			return c.status
		}
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is, or wraps, a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
