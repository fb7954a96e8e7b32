package hubstaff

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(unix int64) *fakeClock {
	return &fakeClock{now: time.Unix(unix, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(unix int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = time.Unix(unix, 0)
}

// sleepRecorder records requested delays without waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *sleepRecorder) Delays() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// fakeAPI serves /oauth/token and everything else from one server.
type fakeAPI struct {
	srv *httptest.Server

	tokenCalls atomic.Int32
	apiCalls   atomic.Int32

	mu            sync.Mutex
	refreshTokens []string
	tokenForm     url.Values
	tokenHeader   http.Header
	lastRequest   *http.Request
	lastBody      []byte
	authHeaders   []string
	order         []string

	token func(w http.ResponseWriter, r *http.Request, n int)
	api   func(w http.ResponseWriter, r *http.Request, n int)
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	f := &fakeAPI{}
	f.token = func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token":  "access-" + itoa(n),
			"refresh_token": "refresh-" + itoa(n),
			"expires_in":    3600,
		})
	}
	f.api = func(w http.ResponseWriter, r *http.Request, n int) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth/token" {
			n := int(f.tokenCalls.Add(1))
			_ = r.ParseForm()
			f.mu.Lock()
			f.refreshTokens = append(f.refreshTokens, r.PostForm.Get("refresh_token"))
			f.tokenForm = r.PostForm
			f.tokenHeader = r.Header.Clone()
			f.order = append(f.order, "token")
			handle := f.token
			f.mu.Unlock()
			handle(w, r, n)
			return
		}
		n := int(f.apiCalls.Add(1))
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.lastRequest = r.Clone(context.Background())
		f.lastBody = body
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.order = append(f.order, r.Method+" "+r.URL.Path)
		handle := f.api
		f.mu.Unlock()
		handle(w, r, n)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) OnToken(h func(w http.ResponseWriter, r *http.Request, n int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = h
}

func (f *fakeAPI) OnAPI(h func(w http.ResponseWriter, r *http.Request, n int)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.api = h
}

func (f *fakeAPI) TokenRequest() (url.Values, http.Header) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokenForm, f.tokenHeader
}

// LastRequest returns the most recent non-token request and its body.
func (f *fakeAPI) LastRequest() (*http.Request, []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastRequest, f.lastBody
}

func (f *fakeAPI) Order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...)
}

func (f *fakeAPI) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

func (f *fakeAPI) RefreshTokens() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.refreshTokens...)
}

func (f *fakeAPI) config() Config {
	return Config{
		PATRefreshToken: "pat-token",
		AuthBaseURL:     f.srv.URL,
		APIBaseURL:      f.srv.URL,
	}
}

func newTestClient(t *testing.T, cfg Config, clock *fakeClock, sleeper *sleepRecorder, opts ...Option) *Client {
	t.Helper()
	opts = append(opts, withClock(clock.Now, sleeper.Sleep))
	c, err := NewClient(cfg, opts...)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func itoa(n int) string {
	return id(int64(n))
}
