package hubstaff

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Defaults applied by NewClient when the matching Config field is empty.
const (
	DefaultAuthBaseURL = "https://account.hubstaff.com"
	DefaultAPIBaseURL  = "https://api.hubstaff.com"
	DefaultAPIVersion  = "v2"
	DefaultTimeout     = 30 * time.Second
)

// ArrayFormat selects how slice values are encoded in query strings.
type ArrayFormat string

const (
	// ArrayComma encodes ids=1,2,3.
	ArrayComma ArrayFormat = "comma"
	// ArrayRepeat encodes ids[]=1&ids[]=2&ids[]=3.
	ArrayRepeat ArrayFormat = "repeat"
)

// Config is the client configuration surface.
type Config struct {
	// PATRefreshToken is the long-lived personal access token used as the
	// refresh token when no rotated one is held yet. Required.
	PATRefreshToken string

	// TokenSet seeds the client with a previously persisted token pair.
	TokenSet *TokenSet

	AuthBaseURL string
	APIBaseURL  string
	APIVersion  string
	Timeout     time.Duration
	ArrayFormat ArrayFormat

	// OnTokenUpdate is called after every successful refresh, once the new
	// set is installed and before any caller uses it. Errors are logged and
	// otherwise ignored.
	OnTokenUpdate func(ctx context.Context, ts TokenSet) error
}

// Option configures optional client collaborators.
type Option func(*options)

type options struct {
	httpClient    *http.Client
	httpClientSet bool
	logger        *slog.Logger
	hooks         Hooks
	userAgent     string
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
}

// WithHTTPClient sets the HTTP client used for both token and resource calls.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
		o.httpClientSet = true
	}
}

// WithLogger sets the logger. Token values are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHooks installs observability hooks.
func WithHooks(h Hooks) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = h
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// withClock replaces the wall clock and the sleep function. Tests only.
func withClock(now func() time.Time, sleep func(context.Context, time.Duration) error) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

func defaultOptions() *options {
	return &options{
		httpClient: &http.Client{},
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		hooks:      NoopHooks{},
		userAgent:  "hubstaff-go",
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
