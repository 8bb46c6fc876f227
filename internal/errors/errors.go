// Package errors defines the error taxonomy shared by the upstream client, the
// cache and the HTTP API.
//
// Usage:
//
//	// In the client - classify the failure
//	if resp.StatusCode == http.StatusNotFound {
//	    return errors.NotFoundf("pokemon %q not found", idOrName)
//	}
//
//	// In callers - branch on the class, not the message
//	if errors.Is(err, errors.ErrNotFound) {
//	    // redirect to the not-found view
//	}
//
//	// Or switch on the code directly
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeTransport, errors.CodeNetwork:
//	        // offer a retry
//	    }
//	}
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is = errors.Is
	As = errors.As
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	// CodeNotFound means the upstream resource does not exist (HTTP 404).
	CodeNotFound Code = "NOT_FOUND"
	// CodeTransport means upstream answered with a non-2xx, non-404 status.
	CodeTransport Code = "TRANSPORT"
	// CodeNetwork means the request never completed.
	CodeNetwork Code = "NETWORK"
	// CodeDecode means the payload was malformed or did not have the expected shape.
	CodeDecode Code = "DECODE"
	// CodeIncompleteData means an aggregation could not gather all required inputs.
	CodeIncompleteData Code = "INCOMPLETE_DATA"
	CodeValidation     Code = "VALIDATION"
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeInternal       Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTransport, CodeDecode:
		return http.StatusBadGateway
	case CodeNetwork, CodeIncompleteData:
		return http.StatusServiceUnavailable
	case CodeValidation:
		return http.StatusBadRequest
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether repeating the same read may succeed.
func (c Code) Retryable() bool {
	switch c {
	case CodeTransport, CodeNetwork, CodeIncompleteData, CodeRateLimited:
		return true
	}
	return false
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

// MarshalJSON adds the retryable hint derived from the code.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code      Code   `json:"code"`
		Message   string `json:"message"`
		Details   any    `json:"details,omitempty"`
		Retryable bool   `json:"retryable"`
	}{e.Code, e.Message, e.Details, e.Code.Retryable()})
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

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// GetStatus returns the HTTP status; with it an *Error can be written as an
// API response body directly.
func (e *Error) GetStatus() int {
	return e.Code.HTTPStatus()
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

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound       = &Error{Code: CodeNotFound, Message: "not found"}
	ErrTransport      = &Error{Code: CodeTransport, Message: "upstream error"}
	ErrNetwork        = &Error{Code: CodeNetwork, Message: "network error"}
	ErrDecode         = &Error{Code: CodeDecode, Message: "malformed response"}
	ErrIncompleteData = &Error{Code: CodeIncompleteData, Message: "data unavailable"}
	ErrValidation     = &Error{Code: CodeValidation, Message: "validation error"}
	ErrRateLimited    = &Error{Code: CodeRateLimited, Message: "too many requests"}
	ErrInternal       = &Error{Code: CodeInternal, Message: "internal error"}
)

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeInternal
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Transport creates a transport error carrying the upstream status text.
func Transport(status int, statusText string) *Error {
	return &Error{
		Code:    CodeTransport,
		Message: statusText,
		Details: map[string]int{"status": status},
	}
}

// Network wraps a failure to complete a request.
func Network(err error) *Error {
	return &Error{Code: CodeNetwork, Message: "request failed", cause: err}
}

// Decode wraps a payload decoding failure.
func Decode(err error) *Error {
	return &Error{Code: CodeDecode, Message: "decode response", cause: err}
}

// Decodef creates a decode error with formatted message.
func Decodef(format string, args ...any) *Error {
	return &Error{Code: CodeDecode, Message: fmt.Sprintf(format, args...)}
}

// IncompleteData creates an incomplete data error.
func IncompleteData(msg string) *Error {
	return &Error{Code: CodeIncompleteData, Message: msg}
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

// RateLimited creates a rate limit error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
