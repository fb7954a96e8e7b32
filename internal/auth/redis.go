package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const credentialsKeyPrefix = "hubstaff:credentials:"

// RedisStore keeps credentials in Redis so several hosts running the CLI
// share one rotating token chain.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// OpenRedisStore connects using a redis:// URL.
func OpenRedisStore(rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis_url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts)), nil
}

func credentialsKey(origin string) string {
	return credentialsKeyPrefix + origin
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) Load(ctx context.Context, origin string) (*Credentials, error) {
	data, err := s.client.Get(ctx, credentialsKey(origin)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get credentials from redis: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", err)
	}
	return &creds, nil
}

func (s *RedisStore) Save(ctx context.Context, origin string, creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, credentialsKey(origin), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set credentials in redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, origin string) error {
	if err := s.client.Del(ctx, credentialsKey(origin)).Err(); err != nil {
		return fmt.Errorf("failed to delete credentials from redis: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
