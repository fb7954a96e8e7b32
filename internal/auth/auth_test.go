package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hubstaff-go/hubstaff/internal/config"
	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

func newTestManager(t *testing.T, authURL string) (*Manager, *Store) {
	t.Helper()
	t.Setenv(EnvPAT, "")
	cfg := config.Default()
	if authURL != "" {
		cfg.AuthBaseURL = authURL
	}
	store := NewFileStore(t.TempDir())
	return NewManager(cfg, store), store
}

func tokenServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_ = r.ParseForm()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-for-" + r.PostForm.Get("refresh_token"),
			"refresh_token": "rotated",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveWithoutCredentials(t *testing.T) {
	m, _ := newTestManager(t, "")

	_, _, err := m.Resolve(context.Background())
	require.Error(t, err)
	e := output.AsError(err)
	assert.Equal(t, output.CodeAuth, e.Code)
	assert.False(t, m.IsAuthenticated(context.Background()))
}

func TestResolvePrefersEnvPAT(t *testing.T) {
	m, store := newTestManager(t, "")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, m.Origin(), &Credentials{PATRefreshToken: "stored", AccessToken: "a"}))

	t.Setenv(EnvPAT, "from-env")
	creds, source, err := m.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "env", source)
	assert.Equal(t, "from-env", creds.PATRefreshToken)
	assert.Empty(t, creds.AccessToken)

	t.Setenv(EnvPAT, "stored")
	creds, _, err = m.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a", creds.AccessToken)
}

func TestClientConfigSeedsStoredTokens(t *testing.T) {
	m, store := newTestManager(t, "")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, m.Origin(), &Credentials{
		PATRefreshToken: "pat", AccessToken: "a", RefreshToken: "r", ExpiresAt: 4600,
	}))

	cfg, err := m.ClientConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pat", cfg.PATRefreshToken)
	assert.Equal(t, &hubstaff.TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresAt: 4600}, cfg.TokenSet)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, hubstaff.ArrayComma, cfg.ArrayFormat)
	require.NotNil(t, cfg.OnTokenUpdate)

	require.NoError(t, cfg.OnTokenUpdate(ctx, hubstaff.TokenSet{AccessToken: "a2", RefreshToken: "r2", ExpiresAt: 9000}))
	saved, err := store.Load(ctx, m.Origin())
	require.NoError(t, err)
	assert.Equal(t, &Credentials{PATRefreshToken: "pat", AccessToken: "a2", RefreshToken: "r2", ExpiresAt: 9000}, saved)
}

func TestClientConfigSeedsRefreshTokenWithoutAccessToken(t *testing.T) {
	m, store := newTestManager(t, "")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, m.Origin(), &Credentials{PATRefreshToken: "pat", RefreshToken: "r5"}))

	cfg, err := m.ClientConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, &hubstaff.TokenSet{RefreshToken: "r5"}, cfg.TokenSet)

	require.NoError(t, store.Save(ctx, m.Origin(), &Credentials{PATRefreshToken: "pat"}))
	cfg, err = m.ClientConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg.TokenSet)
}

func TestLoginStoresRotatedTokens(t *testing.T) {
	srv := tokenServer(t, http.StatusOK)
	m, store := newTestManager(t, srv.URL)
	ctx := context.Background()

	ts, err := m.Login(ctx, "  my-pat  ")
	require.NoError(t, err)
	assert.Equal(t, "access-for-my-pat", ts.AccessToken)

	saved, err := store.Load(ctx, m.Origin())
	require.NoError(t, err)
	assert.Equal(t, "my-pat", saved.PATRefreshToken)
	assert.Equal(t, "rotated", saved.RefreshToken)
	assert.True(t, m.IsAuthenticated(ctx))
}

func TestLoginFailureStoresNothing(t *testing.T) {
	srv := tokenServer(t, http.StatusUnauthorized)
	m, store := newTestManager(t, srv.URL)
	ctx := context.Background()

	_, err := m.Login(ctx, "bad-pat")
	require.Error(t, err)
	assert.True(t, hubstaff.IsAuth(err))

	_, err = store.Load(ctx, m.Origin())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoginRequiresToken(t *testing.T) {
	m, _ := newTestManager(t, "")
	_, err := m.Login(context.Background(), " ")
	require.Error(t, err)
	assert.Equal(t, output.CodeUsage, output.AsError(err).Code)
}

func TestLogout(t *testing.T) {
	m, store := newTestManager(t, "")
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, m.Origin(), &Credentials{PATRefreshToken: "pat"}))

	require.NoError(t, m.Logout(ctx))
	assert.False(t, m.IsAuthenticated(ctx))
}

func TestStatus(t *testing.T) {
	m, store := newTestManager(t, "")
	ctx := context.Background()
	now := time.Unix(1000, 0)

	st := m.Status(ctx, now)
	assert.False(t, st.Authenticated)
	assert.Equal(t, "file", st.Backend)
	assert.Equal(t, "https://account.hubstaff.com", st.Origin)

	require.NoError(t, store.Save(ctx, m.Origin(), &Credentials{PATRefreshToken: "pat", AccessToken: "a", ExpiresAt: 1600}))
	st = m.Status(ctx, now)
	assert.True(t, st.Authenticated)
	assert.Equal(t, "file", st.Source)
	assert.Equal(t, int64(600), st.ExpiresIn)
	assert.False(t, st.Expired)

	st = m.Status(ctx, time.Unix(2000, 0))
	assert.True(t, st.Expired)
}

func TestOpenBackend(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := config.Default()

	cfg.TokenStore = "file"
	b, err := OpenBackend(cfg)
	require.NoError(t, err)
	assert.Equal(t, "file", b.Name())

	cfg.TokenStore = "redis"
	cfg.RedisURL = "redis://localhost:6379/0"
	b, err = OpenBackend(cfg)
	require.NoError(t, err)
	assert.Equal(t, "redis", b.Name())
	require.NoError(t, b.(*RedisStore).Close())
}
