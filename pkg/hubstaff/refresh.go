package hubstaff

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	refreshRetryDelay = 500 * time.Millisecond
	defaultExpiresIn  = 3600
)

// refresher exchanges a refresh token for a new token set.
type refresher struct {
	httpClient *http.Client
	tokenURL   string
	timeout    time.Duration
	userAgent  string
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
	logger     *slog.Logger
}

// Refresh performs the exchange, retrying once after a fixed delay.
func (r *refresher) Refresh(ctx context.Context, refreshToken string) (TokenSet, error) {
	ts, err := r.exchange(ctx, refreshToken)
	if err == nil {
		return ts, nil
	}
	r.logger.Debug("token refresh failed, retrying", "error", err, "delay", refreshRetryDelay)
	if serr := r.sleep(ctx, refreshRetryDelay); serr != nil {
		return TokenSet{}, err
	}
	return r.exchange(ctx, refreshToken)
}

func (r *refresher) exchange(ctx context.Context, refreshToken string) (TokenSet, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, r.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return TokenSet{}, ErrNetwork(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return TokenSet{}, transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return TokenSet{}, transportError(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TokenSet{}, ErrAuth(resp.StatusCode, body)
	}

	var tokenResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    *int64 `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		e := ErrAuth(resp.StatusCode, body)
		e.Message = "token endpoint returned no access token"
		e.Cause = err
		return TokenSet{}, e
	}

	expiresIn := int64(defaultExpiresIn)
	if tokenResp.ExpiresIn != nil {
		expiresIn = *tokenResp.ExpiresIn
	}
	ts := TokenSet{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		ExpiresAt:    r.now().Unix() + expiresIn,
	}
	if ts.RefreshToken == "" {
		ts.RefreshToken = refreshToken
	}
	return ts, nil
}

// transportError classifies a failed exchange. A deadline hit while the
// caller's own context is still live is the per-request timeout.
func transportError(parent context.Context, err error) *Error {
	if parent.Err() == nil {
		var ne net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
			return ErrTimeout(err)
		}
	}
	if perr := parent.Err(); perr != nil {
		return ErrNetwork(perr)
	}
	return ErrNetwork(err)
}
