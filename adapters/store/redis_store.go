package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
	"github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the credential keys in shared backends
const DefaultPrefix = "turf:"

// RedisStore is a Redis implementation of the TokenStore interface
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

var _ ports.TokenStore = (*RedisStore)(nil)

// NewRedisStore creates a new Redis store. An empty prefix selects DefaultPrefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisStore) accessKey() string  { return s.prefix + ports.AccessKey }
func (s *RedisStore) refreshKey() string { return s.prefix + ports.RefreshKey }

// Load reads both keys in one round trip
func (s *RedisStore) Load(ctx context.Context) (core.Credentials, error) {
	vals, err := s.client.MGet(ctx, s.accessKey(), s.refreshKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return core.Credentials{}, fmt.Errorf("failed to load credentials: %w", err)
	}

	var creds core.Credentials
	if len(vals) == 2 {
		creds.Access, _ = vals[0].(string)
		creds.Refresh, _ = vals[1].(string)
	}
	return creds, nil
}

// Save writes both keys atomically
func (s *RedisStore) Save(ctx context.Context, creds core.Credentials) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.accessKey(), creds.Access, 0)
		pipe.Set(ctx, s.refreshKey(), creds.Refresh, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	return nil
}

func (s *RedisStore) SetAccess(ctx context.Context, access string) error {
	if err := s.client.Set(ctx, s.accessKey(), access, 0).Err(); err != nil {
		return fmt.Errorf("failed to save access token: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.accessKey(), s.refreshKey()).Err(); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}
	return nil
}
