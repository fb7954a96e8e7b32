package hubstaff

import (
	"context"
	"time"
)

// RequestInfo describes one HTTP exchange of a logical call.
type RequestInfo struct {
	// CallID is shared by every attempt of the same logical call.
	CallID  string
	Method  string
	URL     string
	Attempt int
}

// RequestResult is reported when an HTTP exchange finishes.
type RequestResult struct {
	StatusCode int
	Duration   time.Duration
	Error      error
}

// RefreshInfo is reported after each refresh-token exchange settles.
type RefreshInfo struct {
	Duration time.Duration
	Error    error
}

// Hooks receives transport events. Implementations must be safe for
// concurrent use.
type Hooks interface {
	OnRequestStart(ctx context.Context, info RequestInfo) context.Context
	OnRequestEnd(ctx context.Context, info RequestInfo, result RequestResult)
	OnRetry(ctx context.Context, info RequestInfo, attempt int, delay time.Duration, err error)
	OnTokenRefresh(ctx context.Context, info RefreshInfo)
}

// NoopHooks ignores every event.
type NoopHooks struct{}

var _ Hooks = NoopHooks{}

func (NoopHooks) OnRequestStart(ctx context.Context, _ RequestInfo) context.Context { return ctx }
func (NoopHooks) OnRequestEnd(context.Context, RequestInfo, RequestResult)          {}
func (NoopHooks) OnRetry(context.Context, RequestInfo, int, time.Duration, error)   {}
func (NoopHooks) OnTokenRefresh(context.Context, RefreshInfo)                       {}
