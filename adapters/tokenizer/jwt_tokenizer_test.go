package tokenizer

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"
	"time"

	"github.com/layer-3/turfbook/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func newSession(now time.Time) *core.Session {
	return &core.Session{
		ID:            "sid-1",
		UserID:        42,
		IssuedAt:      now,
		AccessExpiry:  now.Add(5 * time.Minute),
		RefreshExpiry: now.Add(24 * time.Hour),
		RefreshID:     "rid-1",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tk := NewJWTTokenizer(newKey(t))

	token, err := tk.SessionToAccessToken(newSession(now))
	require.NoError(t, err)

	got, err := tk.AccessTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "sid-1", got.ID)
	assert.Equal(t, "rid-1", got.RefreshID)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	tk := NewJWTTokenizer(newKey(t))

	token, err := tk.SessionToRefreshToken(newSession(now))
	require.NoError(t, err)

	got, err := tk.RefreshTokenToSession(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, "rid-1", got.RefreshID)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	tk := NewJWTTokenizer(newKey(t))
	sess := newSession(time.Now())

	refresh, err := tk.SessionToRefreshToken(sess)
	require.NoError(t, err)
	_, err = tk.AccessTokenToSession(refresh)
	assert.ErrorIs(t, err, core.ErrInvalidToken)

	access, err := tk.SessionToAccessToken(sess)
	require.NoError(t, err)
	_, err = tk.RefreshTokenToSession(access)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestExpiredAccessToken(t *testing.T) {
	now := time.Now()
	clock := now
	tk := NewJWTTokenizer(newKey(t), WithClock(func() time.Time { return clock }))

	token, err := tk.SessionToAccessToken(newSession(now))
	require.NoError(t, err)

	clock = now.Add(10 * time.Minute)
	_, err = tk.AccessTokenToSession(token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestForeignKeyRejected(t *testing.T) {
	sess := newSession(time.Now())
	token, err := NewJWTTokenizer(newKey(t)).SessionToAccessToken(sess)
	require.NoError(t, err)

	_, err = NewJWTTokenizer(newKey(t)).AccessTokenToSession(token)
	assert.ErrorIs(t, err, core.ErrInvalidToken)
}
