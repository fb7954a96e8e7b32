package hubstaff

import (
	"context"

	"golang.org/x/oauth2"
)

// OAuth2 converts the set to an oauth2.Token. The token's Expiry is moved
// forward by the refresh skew so oauth2 considers it expired at the same
// moment this client would refresh.
func (t TokenSet) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       t.Expiry().Add(-expirySkew),
	}
}

type tokenSource struct {
	ctx  context.Context
	http *HTTPClient
}

// Token implements oauth2.TokenSource.
func (s tokenSource) Token() (*oauth2.Token, error) {
	if _, err := s.http.AccessToken(s.ctx); err != nil {
		return nil, err
	}
	ts, _ := s.http.Token()
	return ts.OAuth2(), nil
}

// TokenSource returns an oauth2.TokenSource that draws tokens from this
// client, sharing its refresh coordination. Use it with oauth2.NewClient
// for endpoints the typed services do not cover.
func (c *Client) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, tokenSource{ctx: ctx, http: c.http})
}
