package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeValidation   = "validation_failed"
	CodeConflict     = "conflict"
	CodeUpstream     = "upstream_failure"
	CodeInternal     = "internal_error"
)

// Error is the single error type the HTTP layer knows how to render.
// Details carries per-field or per-record messages for validation failures.
type Error struct {
	Status  int
	Code    string
	Err     error
	Details []string
	// Message overrides Err.Error() in responses.
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Unauthorized(msg string) *Error {
	return New(http.StatusUnauthorized, CodeUnauthorized, errors.New(msg))
}

func Forbidden(msg string) *Error {
	return New(http.StatusForbidden, CodeForbidden, errors.New(msg))
}

func NotFound(msg string) *Error {
	return New(http.StatusNotFound, CodeNotFound, errors.New(msg))
}

func Validation(msg string, details ...string) *Error {
	e := New(http.StatusBadRequest, CodeValidation, errors.New(msg))
	e.Details = details
	return e
}

func Conflict(msg string) *Error {
	return New(http.StatusConflict, CodeConflict, errors.New(msg))
}

// Upstream wraps a failure of a collaborating service. The cause is kept
// for logging; callers only see msg.
func Upstream(msg string, cause error) *Error {
	if cause == nil {
		cause = errors.New(msg)
	}
	e := New(http.StatusBadGateway, CodeUpstream, fmt.Errorf("%s: %w", msg, cause))
	e.Message = msg
	return e
}

func Internal(cause error) *Error {
	return New(http.StatusInternalServerError, CodeInternal, cause)
}

// As extracts an *Error from err. Anything else is reported as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}

// PublicMessage is what clients see. Internal and upstream causes are not
// echoed back.
func (e *Error) PublicMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code == CodeInternal {
		return "internal server error"
	}
	return e.Error()
}
