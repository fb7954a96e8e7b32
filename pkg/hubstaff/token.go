package hubstaff

import (
	"sync/atomic"
	"time"
)

// expirySkew is how long before ExpiresAt a token stops being used.
const expirySkew = 30 * time.Second

// TokenSet is one access/refresh token pair. It is replaced wholesale on
// every refresh and never mutated in place.
type TokenSet struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	// ExpiresAt is the absolute expiry in Unix seconds.
	ExpiresAt int64 `json:"expires_at"`
}

// Usable reports whether the access token may still be sent at now.
func (t TokenSet) Usable(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	return now.Unix() < t.ExpiresAt-int64(expirySkew/time.Second)
}

// Expiry returns ExpiresAt as a time.Time.
func (t TokenSet) Expiry() time.Time {
	return time.Unix(t.ExpiresAt, 0)
}

// tokenStore holds the current token set, if any. A seeded set may carry
// only a refresh token; it is never Usable but still supplies the refresh
// token for the first exchange.
type tokenStore struct {
	cur atomic.Pointer[TokenSet]
}

func newTokenStore(initial *TokenSet) *tokenStore {
	s := &tokenStore{}
	if initial != nil && (initial.AccessToken != "" || initial.RefreshToken != "") {
		ts := *initial
		s.cur.Store(&ts)
	}
	return s
}

func (s *tokenStore) Current() (TokenSet, bool) {
	p := s.cur.Load()
	if p == nil {
		return TokenSet{}, false
	}
	return *p, true
}

func (s *tokenStore) Replace(ts TokenSet) {
	s.cur.Store(&ts)
}
