package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/layer-3/turfbook/adapters/events"
	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterSignsIn(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	u, err := h.auth.Register(ctx, registration("ram", true))
	require.NoError(t, err)
	assert.Equal(t, "ram", u.Username)
	assert.True(t, u.IsTurfOwner)

	ok, err := h.auth.Authenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	creds, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, creds.Access)
	assert.NotEmpty(t, creds.Refresh)
}

func TestRegisterValidatesLocally(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	r := registration("sita", false)
	r.Password2 = "different"
	_, err := h.auth.Register(ctx, r)
	assert.ErrorIs(t, err, core.ErrPasswordMismatch)

	r = registration("", false)
	_, err = h.auth.Register(ctx, r)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	ok, err := h.auth.Authenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoginWithBadPassword(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.as(t, "hari", false)
	require.NoError(t, h.auth.Logout(ctx))

	_, err := h.auth.Login(ctx, "hari@example.com", "wrong")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	creds, err := h.store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, creds.Empty())

	u, err := h.auth.Login(ctx, "hari@example.com", "pa55word")
	require.NoError(t, err)
	assert.Equal(t, "hari", u.Username)
}

func TestLogoutPublishesEvent(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.as(t, "gita", false)

	msgs, err := h.pubsub.Subscribe(ctx, events.LogoutTopic)
	require.NoError(t, err)

	require.NoError(t, h.auth.Logout(ctx))

	ok, err := h.auth.Authenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	select {
	case msg := <-msgs:
		var ev events.LogoutEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &ev))
		assert.Equal(t, ports.LogoutReasonUser, ev.Reason)
		msg.Ack()
	case <-time.After(2 * time.Second):
		t.Fatal("no logout event")
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("NoSession", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.auth.Restore(ctx)
		assert.ErrorIs(t, err, core.ErrNotAuthenticated)
	})

	t.Run("ValidSession", func(t *testing.T) {
		h := newHarness(t)
		h.as(t, "mohan", false)

		u, err := h.auth.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, "mohan", u.Username)
	})

	t.Run("DeadSessionIsLoggedOut", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.store.Save(ctx, core.Credentials{Access: "junk", Refresh: "junk"}))

		_, err := h.auth.Restore(ctx)
		assert.ErrorIs(t, err, core.ErrRefreshFailed)

		creds, err := h.store.Load(ctx)
		require.NoError(t, err)
		assert.True(t, creds.Empty())
	})
}

func TestKeepAlive(t *testing.T) {
	t.Run("RefreshesUntilCancelled", func(t *testing.T) {
		h := newHarness(t)
		h.as(t, "anu", false)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- h.auth.KeepAlive(ctx, 10*time.Millisecond) }()

		require.Eventually(t, func() bool { return h.server.RefreshCalls() >= 2 }, 5*time.Second, 5*time.Millisecond)
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)
	})

	t.Run("SkipsWithoutRefreshToken", func(t *testing.T) {
		h := newHarness(t)

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()

		err := h.auth.KeepAlive(ctx, 5*time.Millisecond)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Zero(t, h.server.RefreshCalls())
	})

	t.Run("StopsOnRefreshFailure", func(t *testing.T) {
		h := newHarness(t)
		h.as(t, "kiran", false)
		h.clock.Advance(2 * time.Hour)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err := h.auth.KeepAlive(ctx, 10*time.Millisecond)
		assert.ErrorIs(t, err, core.ErrRefreshFailed)

		ok, err := h.auth.Authenticated(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
