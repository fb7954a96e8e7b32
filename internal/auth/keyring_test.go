package auth

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreFileBackend(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewFileStore(tmpDir)
	ctx := context.Background()

	origin := "https://account.hubstaff.com"
	creds := &Credentials{
		PATRefreshToken: "pat",
		AccessToken:     "test-access-token",
		RefreshToken:    "test-refresh-token",
		ExpiresAt:       time.Now().Unix() + 3600,
	}

	require.NoError(t, store.Save(ctx, origin, creds), "Save failed")

	info, err := os.Stat(filepath.Join(tmpDir, "credentials.json"))
	require.NoError(t, err, "Credentials file not created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "File permissions mismatch")

	loaded, err := store.Load(ctx, origin)
	require.NoError(t, err, "Load failed")
	assert.Equal(t, creds, loaded)
	assert.Equal(t, "file", store.Name())
}

func TestStoreMultipleOrigins(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "https://one.example.com", &Credentials{PATRefreshToken: "p1"}))
	require.NoError(t, store.Save(ctx, "https://two.example.com", &Credentials{PATRefreshToken: "p2"}))

	loaded1, err := store.Load(ctx, "https://one.example.com")
	require.NoError(t, err)
	assert.Equal(t, "p1", loaded1.PATRefreshToken)

	loaded2, err := store.Load(ctx, "https://two.example.com")
	require.NoError(t, err)
	assert.Equal(t, "p2", loaded2.PATRefreshToken)
}

func TestStoreDelete(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()
	origin := "https://delete-test.example.com"

	require.NoError(t, store.Save(ctx, origin, &Credentials{PATRefreshToken: "gone"}))
	require.NoError(t, store.Delete(ctx, origin))

	_, err := store.Load(ctx, origin)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreLoadMissing(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Load(context.Background(), "https://nonexistent.example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreConcurrentSavesKeepEveryOrigin(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			origin := "https://host" + string(rune('a'+i)) + ".example.com"
			assert.NoError(t, store.Save(ctx, origin, &Credentials{PATRefreshToken: origin}))
		}(i)
	}
	wg.Wait()

	all, err := store.loadAllFromFile()
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestKeyFunction(t *testing.T) {
	tests := []struct {
		origin   string
		expected string
	}{
		{"https://account.hubstaff.com", "hubstaff::https://account.hubstaff.com"},
		{"http://localhost:3000", "hubstaff::http://localhost:3000"},
	}

	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			assert.Equal(t, tt.expected, key(tt.origin))
		})
	}
}

func TestUsingKeyring(t *testing.T) {
	store := &Store{useKeyring: true, fallbackDir: "/tmp"}
	assert.True(t, store.UsingKeyring())
	assert.Equal(t, "keyring", store.Name())

	store = NewFileStore("/tmp")
	assert.False(t, store.UsingKeyring())
}

func TestNewStoreHonorsNoKeyringEnv(t *testing.T) {
	t.Setenv("HUBSTAFF_NO_KEYRING", "1")
	store := NewStore(t.TempDir())
	assert.False(t, store.UsingKeyring())
}
