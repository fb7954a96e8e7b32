package observability

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

var _ hubstaff.Hooks = (*CLIHooks)(nil)

// Trace levels, matching the number of -v flags.
const (
	levelRefresh  = 1 // token refreshes and retries
	levelRequests = 2 // every HTTP exchange
)

// CLIHooks feeds SDK transport events into a SessionCollector and, depending
// on the verbosity level, a TraceWriter. Either sink may be nil.
type CLIHooks struct {
	level     atomic.Int32
	collector *SessionCollector
	trace     *TraceWriter
}

func NewCLIHooks(level int, collector *SessionCollector, trace *TraceWriter) *CLIHooks {
	h := &CLIHooks{collector: collector, trace: trace}
	h.SetLevel(level)
	return h
}

// SetLevel changes verbosity after construction; the root command only knows
// the -v count once flags are parsed.
func (h *CLIHooks) SetLevel(level int) { h.level.Store(int32(level)) }

func (h *CLIHooks) Level() int { return int(h.level.Load()) }

func (h *CLIHooks) tracing(level int) bool {
	return h.trace != nil && h.Level() >= level
}

func (h *CLIHooks) OnRequestStart(ctx context.Context, info hubstaff.RequestInfo) context.Context {
	if h.tracing(levelRequests) {
		h.trace.WriteRequestStart(info)
	}
	return ctx
}

func (h *CLIHooks) OnRequestEnd(_ context.Context, info hubstaff.RequestInfo, result hubstaff.RequestResult) {
	if h.collector != nil {
		h.collector.RecordRequestFromSDK(info, result)
	}
	if h.tracing(levelRequests) {
		h.trace.WriteRequestEnd(info, result)
	}
}

func (h *CLIHooks) OnRetry(_ context.Context, info hubstaff.RequestInfo, attempt int, delay time.Duration, err error) {
	if h.collector != nil {
		h.collector.RecordRetryFromSDK(info, attempt, delay, err)
	}
	if h.tracing(levelRefresh) {
		h.trace.WriteRetry(info, attempt, delay, err)
	}
}

func (h *CLIHooks) OnTokenRefresh(_ context.Context, info hubstaff.RefreshInfo) {
	if h.collector != nil {
		h.collector.RecordRefresh(RefreshMetrics{Duration: info.Duration, Error: info.Error})
	}
	if h.tracing(levelRefresh) {
		h.trace.WriteRefresh(info)
	}
}
