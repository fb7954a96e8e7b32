package observability

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

func TestCLIHooks_SetLevel(t *testing.T) {
	h := NewCLIHooks(0, nil, nil)

	assert.Equal(t, 0, h.Level())

	h.SetLevel(2)
	assert.Equal(t, 2, h.Level())
}

func exercise(h *CLIHooks) {
	ctx := context.Background()
	info := hubstaff.RequestInfo{CallID: "call", Method: "GET", URL: "https://api.test/v2/projects", Attempt: 1}
	ctx = h.OnRequestStart(ctx, info)
	h.OnRequestEnd(ctx, info, hubstaff.RequestResult{StatusCode: 503, Duration: 20 * time.Millisecond})
	h.OnRetry(ctx, info, 1, 250*time.Millisecond, errors.New("HTTP 503"))
	h.OnTokenRefresh(ctx, hubstaff.RefreshInfo{Duration: 5 * time.Millisecond})
}

func TestCLIHooks_Level0_Silent(t *testing.T) {
	var buf bytes.Buffer
	collector := NewSessionCollector()
	h := NewCLIHooks(0, collector, NewTraceWriterTo(&buf))

	exercise(h)

	assert.Equal(t, 0, buf.Len(), "expected no output at level 0")

	summary := collector.Summary()
	assert.Equal(t, 1, summary.TotalRequests)
	assert.Equal(t, 1, summary.FailedRequests)
	assert.Equal(t, 1, summary.TotalRetries)
	assert.Equal(t, 1, summary.TotalRefreshes)
}

func TestCLIHooks_Level1_RetriesAndRefreshes(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHooks(1, nil, NewTraceWriterTo(&buf))

	exercise(h)

	output := buf.String()
	assert.Contains(t, output, "RETRY #1")
	assert.Contains(t, output, "token refreshed")
	assert.NotContains(t, output, "-> GET")
}

func TestCLIHooks_Level2_Requests(t *testing.T) {
	var buf bytes.Buffer
	h := NewCLIHooks(2, nil, NewTraceWriterTo(&buf))

	exercise(h)

	output := buf.String()
	assert.Contains(t, output, "call -> GET https://api.test/v2/projects")
	assert.Contains(t, output, "call <- 503 (20ms)")
}

func TestCLIHooks_NilCollectorAndWriter(t *testing.T) {
	h := NewCLIHooks(2, nil, nil)
	assert.NotPanics(t, func() { exercise(h) })
}
