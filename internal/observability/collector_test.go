package observability

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

func TestSessionCollector_RecordRequest(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRequest(RequestMetrics{Method: "GET", URL: "/organizations", StatusCode: 200, Duration: 50 * time.Millisecond})
	c.RecordRequest(RequestMetrics{Method: "GET", URL: "/projects", StatusCode: 404, Duration: 10 * time.Millisecond})
	c.RecordRequest(RequestMetrics{Method: "GET", URL: "/tasks", Error: errors.New("refused")})

	summary := c.Summary()
	if summary.TotalRequests != 3 {
		t.Errorf("expected 3 total requests, got %d", summary.TotalRequests)
	}
	if summary.FailedRequests != 2 {
		t.Errorf("expected 2 failed requests, got %d", summary.FailedRequests)
	}
	if summary.TotalLatency != 60*time.Millisecond {
		t.Errorf("expected 60ms latency, got %v", summary.TotalLatency)
	}
}

func TestSessionCollector_RecordRequestFromSDK(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRequestFromSDK(
		hubstaff.RequestInfo{CallID: "x", Method: "POST", URL: "/v2/projects/1/tasks", Attempt: 1},
		hubstaff.RequestResult{StatusCode: 201, Duration: 45 * time.Millisecond},
	)

	summary := c.Summary()
	if summary.TotalRequests != 1 || summary.FailedRequests != 0 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

func TestSessionCollector_RetriesAndRefreshes(t *testing.T) {
	c := NewSessionCollector()

	c.RecordRetryFromSDK(hubstaff.RequestInfo{Method: "GET"}, 1, 250*time.Millisecond, errors.New("503"))
	c.RecordRefresh(RefreshMetrics{Duration: time.Millisecond})
	c.RecordRefresh(RefreshMetrics{Error: errors.New("invalid_grant")})

	summary := c.Summary()
	if summary.TotalRetries != 1 {
		t.Errorf("expected 1 retry, got %d", summary.TotalRetries)
	}
	if summary.TotalRefreshes != 2 || summary.FailedRefreshes != 1 {
		t.Errorf("expected 2 refreshes with 1 failure, got %d/%d", summary.TotalRefreshes, summary.FailedRefreshes)
	}
}

func TestSessionCollector_Reset(t *testing.T) {
	c := NewSessionCollector()
	c.RecordRequest(RequestMetrics{StatusCode: 200})
	c.RecordRetry(RetryMetrics{})

	c.Reset()

	summary := c.Summary()
	if summary.TotalRequests != 0 || summary.TotalRetries != 0 {
		t.Errorf("expected zeroed counters after reset, got %+v", summary)
	}
}

func TestSessionCollector_Concurrent(t *testing.T) {
	c := NewSessionCollector()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RecordRequest(RequestMetrics{StatusCode: 200})
			c.RecordRetry(RetryMetrics{})
		}()
	}
	wg.Wait()

	summary := c.Summary()
	if summary.TotalRequests != 50 || summary.TotalRetries != 50 {
		t.Errorf("expected 50/50, got %d/%d", summary.TotalRequests, summary.TotalRetries)
	}
}

func TestSessionMetricsMapRoundTrip(t *testing.T) {
	start := time.Unix(0, 0)
	m := SessionMetrics{
		StartTime:      start,
		EndTime:        start.Add(1500 * time.Millisecond),
		TotalRequests:  3,
		FailedRequests: 1,
		TotalRetries:   2,
		TotalRefreshes: 1,
		TotalLatency:   900 * time.Millisecond,
	}

	// Simulate the JSON round trip that turns ints into float64.
	raw := m.ToMap()
	asJSON := make(map[string]any, len(raw))
	for k, v := range raw {
		switch n := v.(type) {
		case int:
			asJSON[k] = float64(n)
		case int64:
			asJSON[k] = float64(n)
		}
	}

	got := SessionMetricsFromMap(asJSON)
	if got.TotalRequests != 3 || got.FailedRequests != 1 || got.TotalRetries != 2 || got.TotalRefreshes != 1 {
		t.Errorf("counters lost in round trip: %+v", got)
	}
	if got.TotalLatency != 900*time.Millisecond {
		t.Errorf("expected 900ms latency, got %v", got.TotalLatency)
	}

	parts := got.FormatParts()
	want := []string{"1500ms", "3 requests (1 failed)", "2 retries", "1 token refresh"}
	if len(parts) != len(want) {
		t.Fatalf("FormatParts() = %v, want %v", parts, want)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %q, want %q", i, parts[i], want[i])
		}
	}
}

func TestFormatPartsEmpty(t *testing.T) {
	if parts := (SessionMetrics{}).FormatParts(); len(parts) != 0 {
		t.Errorf("expected no parts, got %v", parts)
	}
}
