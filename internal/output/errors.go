package output

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code       string
	Message    string
	Hint       string
	HTTPStatus int
	Retryable  bool
	Cause      error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrUsage(msg string) *Error {
	return &Error{Code: CodeUsage, Message: msg}
}

func ErrUsageHint(msg, hint string) *Error {
	return &Error{Code: CodeUsage, Message: msg, Hint: hint}
}

func ErrNotFound(resource, identifier string) *Error {
	return &Error{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, identifier),
		HTTPStatus: http.StatusNotFound,
	}
}

func ErrAuth(msg string) *Error {
	return &Error{
		Code:    CodeAuth,
		Message: msg,
		Hint:    "Run: hubstaff auth login",
	}
}

func ErrForbidden(msg string) *Error {
	return &Error{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

func ErrRateLimit() *Error {
	return &Error{
		Code:       CodeRateLimit,
		Message:    "Rate limited",
		Hint:       "Try again later",
		HTTPStatus: http.StatusTooManyRequests,
		Retryable:  true,
	}
}

func ErrNetwork(cause error) *Error {
	return &Error{
		Code:      CodeNetwork,
		Message:   "Network error",
		Hint:      cause.Error(),
		Retryable: true,
		Cause:     cause,
	}
}

func ErrAPI(status int, msg string) *Error {
	return &Error{
		Code:       CodeAPI,
		Message:    msg,
		HTTPStatus: status,
	}
}

// FromSDK translates a *hubstaff.Error into the CLI taxonomy. Other errors
// are returned unchanged.
func FromSDK(err error) error {
	e, ok := hubstaff.AsError(err)
	if !ok {
		return err
	}
	var out *Error
	switch e.Code {
	case hubstaff.CodeConfig:
		out = ErrUsage(e.Message)
	case hubstaff.CodeAuth:
		out = ErrAuth(fmt.Sprintf("Token refresh rejected (HTTP %d)", e.HTTPStatus))
		out.HTTPStatus = e.HTTPStatus
	case hubstaff.CodeNetwork, hubstaff.CodeTimeout:
		out = ErrNetwork(e)
	default:
		out = fromStatus(e)
	}
	out.Cause = err
	return out
}

func fromStatus(e *hubstaff.Error) *Error {
	msg := apiMessage(e)
	switch e.HTTPStatus {
	case http.StatusUnauthorized:
		out := ErrAuth(msg)
		out.HTTPStatus = e.HTTPStatus
		return out
	case http.StatusForbidden:
		return ErrForbidden(msg)
	case http.StatusNotFound:
		return &Error{Code: CodeNotFound, Message: msg, HTTPStatus: e.HTTPStatus}
	case http.StatusTooManyRequests:
		return ErrRateLimit()
	}
	out := ErrAPI(e.HTTPStatus, msg)
	out.Retryable = e.Retryable
	return out
}

// apiMessage prefers the "error" or "message" field of a JSON error body.
func apiMessage(e *hubstaff.Error) string {
	if m, ok := e.Details.(map[string]any); ok {
		for _, k := range []string{"error", "message"} {
			if s, ok := m[k].(string); ok && s != "" {
				return s
			}
		}
	}
	if s, ok := e.Details.(string); ok && s != "" && len(s) <= 200 {
		return s
	}
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("Request failed (HTTP %d)", e.HTTPStatus)
	}
	return e.Message
}

// AsError attempts to convert an error to an *Error.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	if _, ok := hubstaff.AsError(err); ok {
		if converted, ok := FromSDK(err).(*Error); ok {
			return converted
		}
	}
	return &Error{
		Code:    CodeAPI,
		Message: err.Error(),
		Cause:   err,
	}
}
