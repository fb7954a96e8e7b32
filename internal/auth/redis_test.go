package auth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()
	origin := "https://account.hubstaff.com"

	creds := &Credentials{PATRefreshToken: "pat", AccessToken: "a", RefreshToken: "r", ExpiresAt: 4600}
	require.NoError(t, store.Save(ctx, origin, creds))

	assert.True(t, mr.Exists("hubstaff:credentials:"+origin))
	assert.Zero(t, mr.TTL("hubstaff:credentials:"+origin))

	loaded, err := store.Load(ctx, origin)
	require.NoError(t, err)
	assert.Equal(t, creds, loaded)
	assert.Equal(t, "redis", store.Name())
}

func TestRedisStoreMissingAndDelete(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx, "https://missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, "https://x", &Credentials{PATRefreshToken: "p"}))
	require.NoError(t, store.Delete(ctx, "https://x"))
	_, err = store.Load(ctx, "https://x")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	store, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set("hubstaff:credentials:https://x", "{not json"))

	_, err := store.Load(context.Background(), "https://x")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpenRedisStoreRejectsBadURL(t *testing.T) {
	_, err := OpenRedisStore("http://not-redis")
	assert.Error(t, err)
}
