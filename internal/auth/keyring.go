package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/gofrs/flock"
	"github.com/zalando/go-keyring"
)

const (
	serviceName = "hubstaff"

	// lockTimeout bounds how long a save waits for another process holding
	// the credentials file lock before proceeding without it.
	lockTimeout = 100 * time.Millisecond
)

// ErrNotFound is returned when no credentials exist for an origin.
var ErrNotFound = errors.New("credentials not found")

// Credentials is the persisted state for one auth origin: the personal
// access token the user supplied and the most recent rotated token set.
type Credentials struct {
	PATRefreshToken string `json:"pat_refresh_token"`
	AccessToken     string `json:"access_token,omitempty"`
	RefreshToken    string `json:"refresh_token,omitempty"`
	ExpiresAt       int64  `json:"expires_at,omitempty"`
}

// Backend persists credentials keyed by auth origin.
type Backend interface {
	Load(ctx context.Context, origin string) (*Credentials, error)
	Save(ctx context.Context, origin string, creds *Credentials) error
	Delete(ctx context.Context, origin string) error
	Name() string
}

var (
	_ Backend = (*Store)(nil)
	_ Backend = (*RedisStore)(nil)
)

// Store handles credential storage, preferring system keychain.
type Store struct {
	useKeyring  bool
	fallbackDir string
}

// NewStore creates a credential store, probing the system keyring.
func NewStore(fallbackDir string) *Store {
	if os.Getenv("HUBSTAFF_NO_KEYRING") != "" {
		return &Store{useKeyring: false, fallbackDir: fallbackDir}
	}

	if keyringAvailable() {
		return &Store{useKeyring: true, fallbackDir: fallbackDir}
	}
	fmt.Fprintf(os.Stderr, "warning: system keyring unavailable, credentials stored in plaintext at %s\n",
		filepath.Join(fallbackDir, "credentials.json"))
	return &Store{useKeyring: false, fallbackDir: fallbackDir}
}

// NewFileStore creates a store that never touches the keyring.
func NewFileStore(dir string) *Store {
	return &Store{useKeyring: false, fallbackDir: dir}
}

// NewKeyringStore creates a keyring-only store, failing when the keyring
// cannot be used.
func NewKeyringStore(fallbackDir string) (*Store, error) {
	if !keyringAvailable() {
		return nil, errors.New("system keyring unavailable")
	}
	return &Store{useKeyring: true, fallbackDir: fallbackDir}, nil
}

func keyringAvailable() bool {
	testKey := "hubstaff::test"
	if err := keyring.Set(serviceName, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, testKey)
	return true
}

// key returns the keyring key for an origin.
func key(origin string) string {
	return fmt.Sprintf("hubstaff::%s", origin)
}

// Name identifies the active backend.
func (s *Store) Name() string {
	if s.useKeyring {
		return "keyring"
	}
	return "file"
}

// Load retrieves credentials for the given origin.
func (s *Store) Load(_ context.Context, origin string) (*Credentials, error) {
	if s.useKeyring {
		return s.loadFromKeyring(origin)
	}
	return s.loadFromFile(origin)
}

// Save stores credentials for the given origin.
func (s *Store) Save(_ context.Context, origin string, creds *Credentials) error {
	if s.useKeyring {
		return s.saveToKeyring(origin, creds)
	}
	return s.updateFile(func(all map[string]*Credentials) {
		all[origin] = creds
	})
}

// Delete removes credentials for the given origin.
func (s *Store) Delete(_ context.Context, origin string) error {
	if s.useKeyring {
		err := keyring.Delete(serviceName, key(origin))
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.updateFile(func(all map[string]*Credentials) {
		delete(all, origin)
	})
}

// Keyring methods

func (s *Store) loadFromKeyring(origin string) (*Credentials, error) {
	data, err := keyring.Get(serviceName, key(origin))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return &creds, nil
}

func (s *Store) saveToKeyring(origin string, creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return keyring.Set(serviceName, key(origin), string(data))
}

// File fallback methods

func (s *Store) credentialsPath() string {
	return filepath.Join(s.fallbackDir, "credentials.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.fallbackDir, "credentials.lock")
}

// acquireLock takes the cross-process credentials lock. It returns nil
// without error when the lock is still held elsewhere after lockTimeout.
func (s *Store) acquireLock() (*flock.Flock, error) {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return nil, err
	}
	fl := flock.New(s.lockPath())

	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := fl.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, err
	}
	if !locked {
		return nil, nil
	}
	return fl, nil
}

// updateFile applies fn to the stored map under the file lock and writes
// the result back.
func (s *Store) updateFile(fn func(map[string]*Credentials)) error {
	fl, err := s.acquireLock()
	if err != nil {
		return err
	}
	if fl != nil {
		defer fl.Unlock() //nolint:errcheck
	}

	all, err := s.loadAllFromFile()
	if err != nil {
		return err
	}
	fn(all)
	return s.saveAllToFile(all)
}

func (s *Store) loadAllFromFile() (map[string]*Credentials, error) {
	data, err := os.ReadFile(s.credentialsPath())
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Credentials), nil
		}
		return nil, err
	}

	var all map[string]*Credentials
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	if all == nil {
		all = make(map[string]*Credentials)
	}
	return all, nil
}

func (s *Store) saveAllToFile(all map[string]*Credentials) error {
	if err := os.MkdirAll(s.fallbackDir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(s.fallbackDir, "credentials-*.json.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Chmod(0600); err != nil {
		tmpFile.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmpFile.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	// Windows: rename fails when destination exists.
	destPath := s.credentialsPath()
	if err := os.Rename(tmpPath, destPath); err != nil {
		if runtime.GOOS == "windows" {
			_ = os.Remove(destPath)
			return os.Rename(tmpPath, destPath)
		}
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (s *Store) loadFromFile(origin string) (*Credentials, error) {
	all, err := s.loadAllFromFile()
	if err != nil {
		return nil, err
	}

	creds, ok := all[origin]
	if !ok || creds == nil {
		return nil, ErrNotFound
	}
	return creds, nil
}

// MigrateToKeyring moves credentials from the plaintext file into the
// keyring and removes the file.
func (s *Store) MigrateToKeyring() error {
	if !s.useKeyring {
		return nil
	}

	all, err := s.loadAllFromFile()
	if err != nil || len(all) == 0 {
		return nil //nolint:nilerr // No file to migrate is not an error
	}

	for origin, creds := range all {
		if err := s.saveToKeyring(origin, creds); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", origin, err)
		}
	}

	_ = os.Remove(s.credentialsPath())
	return nil
}

// UsingKeyring returns true if the store is using the system keyring.
func (s *Store) UsingKeyring() bool {
	return s.useKeyring
}
