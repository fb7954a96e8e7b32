// Package auth persists Hubstaff credentials and hands them to the SDK.
package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hubstaff-go/hubstaff/internal/config"
	"github.com/hubstaff-go/hubstaff/internal/output"
	"github.com/hubstaff-go/hubstaff/pkg/hubstaff"
)

// EnvPAT names the environment variable that supplies a personal access
// token without a stored login.
const EnvPAT = "HUBSTAFF_PAT_REFRESH_TOKEN"

// Manager resolves credentials for the configured auth origin.
type Manager struct {
	cfg     *config.Config
	backend Backend
}

// NewManager creates a new auth manager.
func NewManager(cfg *config.Config, backend Backend) *Manager {
	return &Manager{cfg: cfg, backend: backend}
}

// OpenBackend selects the credential backend named by cfg.TokenStore.
func OpenBackend(cfg *config.Config) (Backend, error) {
	dir := config.GlobalConfigDir()
	switch cfg.TokenStore {
	case "redis":
		return OpenRedisStore(cfg.RedisURL)
	case "file":
		return NewFileStore(dir), nil
	case "keyring":
		return NewKeyringStore(dir)
	default:
		return NewStore(dir), nil
	}
}

// Origin is the key credentials are stored under.
func (m *Manager) Origin() string {
	return config.NormalizeBaseURL(m.cfg.AuthBaseURL)
}

// Backend returns the credential backend.
func (m *Manager) Backend() Backend {
	return m.backend
}

// Resolve returns the credentials to use and where the PAT came from
// ("env" or the backend name). When the environment supplies a PAT that
// differs from the stored one, stored tokens are ignored.
func (m *Manager) Resolve(ctx context.Context) (*Credentials, string, error) {
	stored, err := m.backend.Load(ctx, m.Origin())
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}

	if pat := strings.TrimSpace(os.Getenv(EnvPAT)); pat != "" {
		if stored != nil && stored.PATRefreshToken == pat {
			return stored, "env", nil
		}
		return &Credentials{PATRefreshToken: pat}, "env", nil
	}
	if stored == nil || stored.PATRefreshToken == "" {
		return nil, "", output.ErrAuth("Not authenticated")
	}
	return stored, m.backend.Name(), nil
}

// IsAuthenticated reports whether a PAT is available.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	_, _, err := m.Resolve(ctx)
	return err == nil
}

// ClientConfig builds the SDK configuration, seeding it with the stored
// token set and persisting every rotation back to the backend.
func (m *Manager) ClientConfig(ctx context.Context) (hubstaff.Config, error) {
	creds, _, err := m.Resolve(ctx)
	if err != nil {
		return hubstaff.Config{}, err
	}

	cfg := m.baseConfig(creds.PATRefreshToken)
	if creds.AccessToken != "" || creds.RefreshToken != "" {
		cfg.TokenSet = &hubstaff.TokenSet{
			AccessToken:  creds.AccessToken,
			RefreshToken: creds.RefreshToken,
			ExpiresAt:    creds.ExpiresAt,
		}
	}
	cfg.OnTokenUpdate = m.persist(creds.PATRefreshToken)
	return cfg, nil
}

func (m *Manager) baseConfig(pat string) hubstaff.Config {
	return hubstaff.Config{
		PATRefreshToken: pat,
		AuthBaseURL:     m.cfg.AuthBaseURL,
		APIBaseURL:      m.cfg.APIBaseURL,
		APIVersion:      m.cfg.APIVersion,
		Timeout:         time.Duration(m.cfg.TimeoutMS) * time.Millisecond,
		ArrayFormat:     hubstaff.ArrayFormat(m.cfg.ArrayFormat),
	}
}

func (m *Manager) persist(pat string) func(context.Context, hubstaff.TokenSet) error {
	return func(ctx context.Context, ts hubstaff.TokenSet) error {
		return m.backend.Save(ctx, m.Origin(), &Credentials{
			PATRefreshToken: pat,
			AccessToken:     ts.AccessToken,
			RefreshToken:    ts.RefreshToken,
			ExpiresAt:       ts.ExpiresAt,
		})
	}
}

// Login validates pat by exchanging it for a token set and stores the
// result. Nothing is stored when the exchange fails.
func (m *Manager) Login(ctx context.Context, pat string, opts ...hubstaff.Option) (hubstaff.TokenSet, error) {
	pat = strings.TrimSpace(pat)
	if pat == "" {
		return hubstaff.TokenSet{}, output.ErrUsage("personal access token is required")
	}

	client, err := hubstaff.NewClient(m.baseConfig(pat), opts...)
	if err != nil {
		return hubstaff.TokenSet{}, err
	}
	ts, err := client.HTTP().Refresh(ctx)
	if err != nil {
		return hubstaff.TokenSet{}, err
	}

	if s, ok := m.backend.(*Store); ok {
		if err := s.MigrateToKeyring(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if err := m.persist(pat)(ctx, ts); err != nil {
		return hubstaff.TokenSet{}, fmt.Errorf("save credentials: %w", err)
	}
	return ts, nil
}

// Logout removes stored credentials for the origin.
func (m *Manager) Logout(ctx context.Context) error {
	return m.backend.Delete(ctx, m.Origin())
}

// Status describes the current authentication state.
type Status struct {
	Authenticated bool   `json:"authenticated"`
	Origin        string `json:"origin"`
	Source        string `json:"source,omitempty"`
	Backend       string `json:"backend"`
	ExpiresAt     int64  `json:"expires_at,omitempty"`
	ExpiresIn     int64  `json:"expires_in,omitempty"`
	Expired       bool   `json:"expired"`
}

// Status reports the authentication state without contacting the API.
func (m *Manager) Status(ctx context.Context, now time.Time) Status {
	st := Status{Origin: m.Origin(), Backend: m.backend.Name()}
	creds, source, err := m.Resolve(ctx)
	if err != nil {
		return st
	}
	st.Authenticated = true
	st.Source = source
	if creds.ExpiresAt > 0 {
		st.ExpiresAt = creds.ExpiresAt
		st.ExpiresIn = creds.ExpiresAt - now.Unix()
		st.Expired = st.ExpiresIn <= 0
	}
	return st
}
