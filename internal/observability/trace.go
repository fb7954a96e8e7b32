package observability

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

const redacted = "[REDACTED]"

// TraceWriter prints one line per transport event, prefixed with the time
// elapsed since the writer was created:
//
//	[0.234s] 1a2b3c4d -> GET https://api.hubstaff.com/v2/organizations
//	[0.279s] 1a2b3c4d <- 200 (45ms)
type TraceWriter struct {
	mu    sync.Mutex
	out   io.Writer
	start time.Time
}

// NewTraceWriter traces to stderr.
func NewTraceWriter() *TraceWriter {
	return NewTraceWriterTo(os.Stderr)
}

func NewTraceWriterTo(w io.Writer) *TraceWriter {
	return &TraceWriter{out: w, start: time.Now()}
}

func (t *TraceWriter) line(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "[%.3fs] %s\n", time.Since(t.start).Seconds(), msg)
}

// callTag keeps the first group of a UUID call ID.
func callTag(info hubstaff.RequestInfo) string {
	tag, _, _ := strings.Cut(info.CallID, "-")
	if tag == "" {
		return info.CallID
	}
	return tag
}

func (t *TraceWriter) WriteRequestStart(info hubstaff.RequestInfo) {
	t.line(callTag(info) + " -> " + info.Method + " " + scrubURL(info.URL))
}

func (t *TraceWriter) WriteRequestEnd(info hubstaff.RequestInfo, result hubstaff.RequestResult) {
	if result.Error != nil {
		t.line(fmt.Sprintf("%s <- ERROR: %v", callTag(info), result.Error))
		return
	}
	t.line(fmt.Sprintf("%s <- %d (%dms)", callTag(info), result.StatusCode, result.Duration.Milliseconds()))
}

func (t *TraceWriter) WriteRetry(info hubstaff.RequestInfo, attempt int, delay time.Duration, err error) {
	t.line(fmt.Sprintf("%s RETRY #%d in %dms: %v", callTag(info), attempt, delay.Milliseconds(), err))
}

// WriteRefresh reports a token exchange. Token values never reach the trace.
func (t *TraceWriter) WriteRefresh(info hubstaff.RefreshInfo) {
	ms := info.Duration.Milliseconds()
	if info.Error != nil {
		t.line(fmt.Sprintf("token refresh failed (%dms): %v", ms, info.Error))
		return
	}
	t.line(fmt.Sprintf("token refreshed (%dms)", ms))
}

// scrubURL masks credential-bearing query parameters. Matching ignores case.
func scrubURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable URL]"
	}
	q := u.Query()
	dirty := false
	for key := range q {
		switch strings.ToLower(key) {
		case "access_token", "refresh_token", "token", "client_secret",
			"api_key", "apikey", "password", "secret":
			q.Set(key, redacted)
			dirty = true
		}
	}
	if !dirty {
		return raw
	}
	u.RawQuery = q.Encode()
	return u.String()
}
