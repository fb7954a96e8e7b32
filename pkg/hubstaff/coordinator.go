package hubstaff

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// refreshCoordinator guarantees at most one refresh in flight per client.
// Every caller arriving while one is pending waits on the same outcome.
type refreshCoordinator struct {
	store         *tokenStore
	refresher     *refresher
	credential    string
	onTokenUpdate func(context.Context, TokenSet) error
	hooks         Hooks
	logger        *slog.Logger
	now           func() time.Time

	group singleflight.Group
	// busy is set from the start of a refresh until its callback returns.
	busy atomic.Bool
}

// refreshing reports whether a refresh is between its exchange and the
// end of OnTokenUpdate.
func (c *refreshCoordinator) refreshing() bool {
	return c.busy.Load()
}

// EnsureFresh runs or joins the shared refresh. rejected is the access
// token the caller saw refused by the API, or "" when the caller only found
// the held token stale. A refresh that starts after another one already
// replaced that token returns the installed set without a new exchange.
//
// A caller whose ctx ends stops waiting; the refresh itself keeps going for
// the other waiters.
func (c *refreshCoordinator) EnsureFresh(ctx context.Context, rejected string) (TokenSet, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		c.busy.Store(true)
		defer c.busy.Store(false)
		if cur, ok := c.store.Current(); ok && cur.Usable(c.now()) &&
			(rejected == "" || cur.AccessToken != rejected) {
			return cur, nil
		}
		return c.refresh(shared)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return TokenSet{}, res.Err
		}
		return res.Val.(TokenSet), nil
	case <-ctx.Done():
		return TokenSet{}, ErrNetwork(ctx.Err())
	}
}

func (c *refreshCoordinator) refresh(ctx context.Context) (TokenSet, error) {
	refreshToken := c.credential
	if cur, ok := c.store.Current(); ok && cur.RefreshToken != "" {
		refreshToken = cur.RefreshToken
	}

	start := c.now()
	ts, err := c.refresher.Refresh(ctx, refreshToken)
	c.hooks.OnTokenRefresh(ctx, RefreshInfo{Duration: c.now().Sub(start), Error: err})
	if err != nil {
		c.logger.Warn("token refresh failed", "error", err)
		return TokenSet{}, err
	}

	c.store.Replace(ts)
	c.logger.Debug("token refreshed", "expires_at", ts.Expiry().UTC().Format(time.RFC3339))
	c.notify(ctx, ts)
	return ts, nil
}

func (c *refreshCoordinator) notify(ctx context.Context, ts TokenSet) {
	if c.onTokenUpdate == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("token update callback panicked", "panic", fmt.Sprint(r))
		}
	}()
	if err := c.onTokenUpdate(ctx, ts); err != nil {
		c.logger.Warn("token update callback failed", "error", err)
	}
}
