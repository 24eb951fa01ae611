package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/layer-3/turfbook/ports"
	"github.com/redis/go-redis/v9"
)

// RedisRevocationList keeps revoked token ids as expiring Redis keys
type RedisRevocationList struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisRevocationList creates a revocation list. Keys are prefix + "revoked:" + id.
func NewRedisRevocationList(client redis.UniversalClient, prefix string) ports.RevocationList {
	return &RedisRevocationList{
		client: client,
		prefix: prefix + "revoked:",
	}
}

// InvalidateToken marks a token as invalidated in Redis
func (s *RedisRevocationList) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+tokenID, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w", err)
	}
	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis
func (s *RedisRevocationList) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w", err)
	}
	return n > 0, nil
}

// MemoryRevocationList is an in-process revocation list
type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewMemoryRevocationList creates an empty list. A nil now uses time.Now.
func NewMemoryRevocationList(now func() time.Time) *MemoryRevocationList {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevocationList{
		revoked: make(map[string]time.Time),
		now:     now,
	}
}

func (s *MemoryRevocationList) InvalidateToken(_ context.Context, tokenID string, expiry time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revoked[tokenID] = s.now().Add(expiry)
	return nil
}

func (s *MemoryRevocationList) IsTokenInvalidated(_ context.Context, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	until, ok := s.revoked[tokenID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(until) {
		delete(s.revoked, tokenID)
		return false, nil
	}
	return true, nil
}
