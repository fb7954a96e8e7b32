// Package observability provides metrics collection and tracing for CLI operations.
package observability

import (
	"fmt"
	"sync"
	"time"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// RequestMetrics holds timing and status information for a single HTTP request.
type RequestMetrics struct {
	CallID     string
	Method     string
	URL        string
	Attempt    int
	StatusCode int
	Duration   time.Duration
	Error      error
}

// RetryMetrics records a retry event.
type RetryMetrics struct {
	Method  string
	URL     string
	Attempt int
	Delay   time.Duration
	Error   error
}

// RefreshMetrics records one token exchange.
type RefreshMetrics struct {
	Duration time.Duration
	Error    error
}

// SessionMetrics aggregates metrics for an entire CLI session.
type SessionMetrics struct {
	StartTime       time.Time
	EndTime         time.Time
	TotalRequests   int
	FailedRequests  int
	TotalRetries    int
	TotalRefreshes  int
	FailedRefreshes int
	TotalLatency    time.Duration
}

// SessionCollector accumulates metrics across a CLI session.
// It is safe for concurrent use and keeps counters rather than samples.
type SessionCollector struct {
	mu sync.Mutex

	startTime       time.Time
	totalRequests   int
	failedRequests  int
	totalRetries    int
	totalRefreshes  int
	failedRefreshes int
	totalLatency    time.Duration
}

// NewSessionCollector creates a new SessionCollector.
func NewSessionCollector() *SessionCollector {
	return &SessionCollector{
		startTime: time.Now(),
	}
}

// RecordRequest records metrics for an HTTP request. Transport failures and
// responses with status >= 400 both count as failed.
func (c *SessionCollector) RecordRequest(m RequestMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
	c.totalLatency += m.Duration
	if m.Error != nil || m.StatusCode >= 400 {
		c.failedRequests++
	}
}

// RecordRequestFromSDK records metrics from SDK types.
func (c *SessionCollector) RecordRequestFromSDK(info hubstaff.RequestInfo, result hubstaff.RequestResult) {
	c.RecordRequest(RequestMetrics{
		CallID:     info.CallID,
		Method:     info.Method,
		URL:        info.URL,
		Attempt:    info.Attempt,
		StatusCode: result.StatusCode,
		Duration:   result.Duration,
		Error:      result.Error,
	})
}

// RecordRetry records a retry event.
func (c *SessionCollector) RecordRetry(_ RetryMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRetries++
}

// RecordRetryFromSDK records a retry event from SDK types.
func (c *SessionCollector) RecordRetryFromSDK(info hubstaff.RequestInfo, attempt int, delay time.Duration, err error) {
	c.RecordRetry(RetryMetrics{
		Method:  info.Method,
		URL:     info.URL,
		Attempt: attempt,
		Delay:   delay,
		Error:   err,
	})
}

// RecordRefresh records a token exchange.
func (c *SessionCollector) RecordRefresh(m RefreshMetrics) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRefreshes++
	if m.Error != nil {
		c.failedRefreshes++
	}
}

// Summary returns aggregated metrics for the session.
func (c *SessionCollector) Summary() SessionMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	return SessionMetrics{
		StartTime:       c.startTime,
		EndTime:         time.Now(),
		TotalRequests:   c.totalRequests,
		FailedRequests:  c.failedRequests,
		TotalRetries:    c.totalRetries,
		TotalRefreshes:  c.totalRefreshes,
		FailedRefreshes: c.failedRefreshes,
		TotalLatency:    c.totalLatency,
	}
}

// Reset clears all collected metrics and resets the start time.
func (c *SessionCollector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = time.Now()
	c.totalRequests = 0
	c.failedRequests = 0
	c.totalRetries = 0
	c.totalRefreshes = 0
	c.failedRefreshes = 0
	c.totalLatency = 0
}

// ToMap converts the metrics to the shape carried in response meta.
func (m SessionMetrics) ToMap() map[string]any {
	return map[string]any{
		"requests":         m.TotalRequests,
		"failed_requests":  m.FailedRequests,
		"retries":          m.TotalRetries,
		"refreshes":        m.TotalRefreshes,
		"failed_refreshes": m.FailedRefreshes,
		"latency_ms":       m.TotalLatency.Milliseconds(),
		"duration_ms":      m.EndTime.Sub(m.StartTime).Milliseconds(),
	}
}

// SessionMetricsFromMap rebuilds metrics from ToMap output. Numbers may be
// ints or float64 (after a JSON round trip).
func SessionMetricsFromMap(m map[string]any) SessionMetrics {
	var out SessionMetrics
	out.TotalRequests = intOf(m["requests"])
	out.FailedRequests = intOf(m["failed_requests"])
	out.TotalRetries = intOf(m["retries"])
	out.TotalRefreshes = intOf(m["refreshes"])
	out.FailedRefreshes = intOf(m["failed_refreshes"])
	out.TotalLatency = time.Duration(intOf(m["latency_ms"])) * time.Millisecond
	out.EndTime = out.StartTime.Add(time.Duration(intOf(m["duration_ms"])) * time.Millisecond)
	return out
}

// FormatParts renders the non-zero counters for a one-line summary.
func (m SessionMetrics) FormatParts() []string {
	var parts []string
	if d := m.EndTime.Sub(m.StartTime); d > 0 {
		parts = append(parts, fmt.Sprintf("%dms", d.Milliseconds()))
	}
	if m.TotalRequests > 0 {
		req := fmt.Sprintf("%d requests", m.TotalRequests)
		if m.TotalRequests == 1 {
			req = "1 request"
		}
		if m.FailedRequests > 0 {
			req += fmt.Sprintf(" (%d failed)", m.FailedRequests)
		}
		parts = append(parts, req)
	}
	if m.TotalRetries > 0 {
		parts = append(parts, fmt.Sprintf("%d retries", m.TotalRetries))
	}
	switch {
	case m.TotalRefreshes == 1:
		parts = append(parts, "1 token refresh")
	case m.TotalRefreshes > 1:
		parts = append(parts, fmt.Sprintf("%d token refreshes", m.TotalRefreshes))
	}
	return parts
}

func intOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
