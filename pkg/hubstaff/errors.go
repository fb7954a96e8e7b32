package hubstaff

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error codes carried by *Error.
const (
	CodeAuth    = "auth_error"
	CodeAPI     = "api_error"
	CodeNetwork = "network"
	CodeTimeout = "timeout"
	CodeConfig  = "config"
)

// Error is the single error type returned by the SDK. Code identifies the
// failure class; HTTPStatus and Body are set whenever a response was received.
type Error struct {
	Code       string
	Message    string
	HTTPStatus int
	// Body is the raw response body. Details holds the same body decoded as
	// JSON, or the raw text when it is not JSON.
	Body      []byte
	Details   any
	Retryable bool
	Cause     error
}

// Error formats the message, the HTTP status and the cause.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.HTTPStatus != 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.HTTPStatus)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrAuth reports a failed refresh-token exchange.
func ErrAuth(status int, body []byte) *Error {
	return &Error{
		Code:       CodeAuth,
		Message:    "token refresh failed",
		HTTPStatus: status,
		Body:       body,
		Details:    decodeDetails(body),
	}
}

// ErrAPI reports a resource call that ended in a non-success status.
func ErrAPI(status int, body []byte) *Error {
	return &Error{
		Code:       CodeAPI,
		Message:    "api request failed",
		HTTPStatus: status,
		Body:       body,
		Details:    decodeDetails(body),
		Retryable:  isRetryable(status),
	}
}

// ErrNetwork wraps a transport-level failure.
func ErrNetwork(cause error) *Error {
	return &Error{
		Code:      CodeNetwork,
		Message:   "network error",
		Retryable: !errors.Is(cause, context.Canceled),
		Cause:     cause,
	}
}

// ErrTimeout reports that a single HTTP exchange exceeded the configured timeout.
func ErrTimeout(cause error) *Error {
	return &Error{
		Code:      CodeTimeout,
		Message:   "request timed out",
		Retryable: true,
		Cause:     cause,
	}
}

// ErrConfig reports an invalid client configuration.
func ErrConfig(msg string) *Error {
	return &Error{Code: CodeConfig, Message: msg}
}

// AsError returns err as *Error if it is one (or wraps one).
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func hasCode(err error, codes ...string) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	for _, c := range codes {
		if e.Code == c {
			return true
		}
	}
	return false
}

// IsAuth reports a failed token refresh.
func IsAuth(err error) bool   { return hasCode(err, CodeAuth) }
// IsAPI reports a non-2xx API response.
func IsAPI(err error) bool    { return hasCode(err, CodeAPI) }
// IsConfig reports an invalid client configuration.
func IsConfig(err error) bool { return hasCode(err, CodeConfig) }

// IsNetwork reports transport failures, timeouts included.
func IsNetwork(err error) bool { return hasCode(err, CodeNetwork, CodeTimeout) }

// StatusCode returns the HTTP status attached to err, or 0.
func StatusCode(err error) int {
	if e, ok := AsError(err); ok {
		return e.HTTPStatus
	}
	return 0
}
