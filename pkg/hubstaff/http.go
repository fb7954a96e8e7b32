package hubstaff

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// HTTPClient is the authenticated transport. Resource services issue all
// their calls through it. It is safe for concurrent use.
type HTTPClient struct {
	httpClient  *http.Client
	apiBase     string
	apiVersion  string
	timeout     time.Duration
	arrayFormat ArrayFormat
	userAgent   string

	store *tokenStore
	coord *refreshCoordinator

	hooks  Hooks
	logger *slog.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

func newHTTPClient(cfg Config, o *options) *HTTPClient {
	store := newTokenStore(cfg.TokenSet)
	r := &refresher{
		httpClient: o.httpClient,
		tokenURL:   cfg.AuthBaseURL + "/oauth/token",
		timeout:    cfg.Timeout,
		userAgent:  o.userAgent,
		now:        o.now,
		sleep:      o.sleep,
		logger:     o.logger,
	}
	return &HTTPClient{
		httpClient:  o.httpClient,
		apiBase:     cfg.APIBaseURL,
		apiVersion:  cfg.APIVersion,
		timeout:     cfg.Timeout,
		arrayFormat: cfg.ArrayFormat,
		userAgent:   o.userAgent,
		store:       store,
		coord: &refreshCoordinator{
			store:         store,
			refresher:     r,
			credential:    cfg.PATRefreshToken,
			onTokenUpdate: cfg.OnTokenUpdate,
			hooks:         o.hooks,
			logger:        o.logger,
			now:           o.now,
		},
		hooks:  o.hooks,
		logger: o.logger,
		now:    o.now,
		sleep:  o.sleep,
	}
}

// Get issues a GET with the encoded query appended to path.
func (c *HTTPClient) Get(ctx context.Context, path string, query Query) (json.RawMessage, error) {
	return c.execute(ctx, http.MethodGet, path+c.BuildQuery(query), nil)
}

// Post issues a POST with body encoded as JSON. A nil body sends no payload.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.withBody(ctx, http.MethodPost, path, body)
}

// Put issues a PUT with body encoded as JSON. A nil body sends no payload.
func (c *HTTPClient) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.withBody(ctx, http.MethodPut, path, body)
}

func (c *HTTPClient) withBody(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Code: CodeAPI, Message: "encode request body", Cause: err}
		}
		payload = b
	}
	return c.execute(ctx, method, path, payload)
}

// BuildQuery encodes query with the client's array format.
func (c *HTTPClient) BuildQuery(query Query) string {
	return BuildQuery(query, c.arrayFormat)
}

var versionPrefix = regexp.MustCompile(`^/v\d+(/|$)`)

// V prefixes path with the configured API version unless it already
// starts with a version segment.
func (c *HTTPClient) V(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if versionPrefix.MatchString(path) {
		return path
	}
	return "/" + c.apiVersion + path
}

// APIBase returns the resource API origin.
func (c *HTTPClient) APIBase() string {
	return c.apiBase
}

// AccessToken returns a token valid for at least the expiry skew,
// refreshing first when the held one is absent or about to expire.
func (c *HTTPClient) AccessToken(ctx context.Context) (string, error) {
	// The busy check follows the load: a token installed by a refresh whose
	// callback has not returned yet is only handed out through EnsureFresh.
	if ts, ok := c.store.Current(); ok && ts.Usable(c.now()) && !c.coord.refreshing() {
		return ts.AccessToken, nil
	}
	ts, err := c.coord.EnsureFresh(ctx, "")
	if err != nil {
		return "", err
	}
	return ts.AccessToken, nil
}

// Refresh forces a refresh of the held token, joining one already in
// flight. It returns without an exchange only when another refresh replaced
// the held token in the meantime.
func (c *HTTPClient) Refresh(ctx context.Context) (TokenSet, error) {
	cur, _ := c.store.Current()
	return c.coord.EnsureFresh(ctx, cur.AccessToken)
}

// Token returns the currently held token set.
func (c *HTTPClient) Token() (TokenSet, bool) {
	return c.store.Current()
}
