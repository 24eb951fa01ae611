package http

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/layer-3/turfbook/adapters/store"
	"github.com/layer-3/turfbook/adapters/tokenizer"
	"github.com/layer-3/turfbook/core"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSessions(t *testing.T, clock *fakeClock, rotate bool) *Sessions {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	return &Sessions{
		tokenizer:   tokenizer.NewJWTTokenizer(key, tokenizer.WithClock(clock.Now)),
		revocations: store.NewRedisRevocationList(rdb, store.DefaultPrefix),
		now:         clock.Now,
		accessTTL:   5 * time.Minute,
		refreshTTL:  time.Hour,
		rotate:      rotate,
	}
}

func TestSessionsIssueAndValidate(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	s := newSessions(t, clock, false)

	access, refresh, err := s.Issue(42)
	require.NoError(t, err)

	session, err := s.Validate(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, int64(42), session.UserID)

	_, err = s.Validate(ctx, refresh)
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	clock.Advance(6 * time.Minute)
	_, err = s.Validate(ctx, access)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestSessionsRefreshWithoutRotation(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	s := newSessions(t, clock, false)

	_, refresh, err := s.Issue(7)
	require.NoError(t, err)

	access, rotated, err := s.Refresh(ctx, refresh)
	require.NoError(t, err)
	assert.Empty(t, rotated)

	session, err := s.Validate(ctx, access)
	require.NoError(t, err)
	assert.Equal(t, int64(7), session.UserID)

	// the same refresh token keeps working
	_, _, err = s.Refresh(ctx, refresh)
	assert.NoError(t, err)
}

func TestSessionsRefreshWithRotation(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Now()}
	s := newSessions(t, clock, true)

	oldAccess, refresh, err := s.Issue(7)
	require.NoError(t, err)

	access, rotated, err := s.Refresh(ctx, refresh)
	require.NoError(t, err)
	require.NotEmpty(t, rotated)
	assert.NotEqual(t, refresh, rotated)

	_, _, err = s.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = s.Validate(ctx, oldAccess)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = s.Validate(ctx, access)
	assert.NoError(t, err)
}
