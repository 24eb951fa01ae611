package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
)

// State of the refresh coordinator
type State int32

const (
	StateIdle State = iota
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// RefreshFunc exchanges the stored refresh token for a new access token
type RefreshFunc func(ctx context.Context) (string, error)

// CoordinatorConfig holds the collaborators of a Coordinator. Nil fields get no-op defaults.
type CoordinatorConfig struct {
	Navigator ports.Navigator
	Events    ports.EventPublisher
	Logger    watermill.LoggerAdapter
	LoginPath string
	// Timeout bounds a single refresh call. Zero means no bound.
	Timeout time.Duration
}

type outcome struct {
	access string
	err    error
}

type waiter struct {
	ctx context.Context
	ch  chan outcome
}

// Coordinator guarantees that at most one refresh call is in flight.
// Callers arriving while a refresh runs are parked and settled in arrival order
// with the outcome of that refresh.
type Coordinator struct {
	refresh   RefreshFunc
	store     ports.TokenStore
	navigator ports.Navigator
	events    ports.EventPublisher
	logger    watermill.LoggerAdapter
	loginPath string
	timeout   time.Duration

	mu      sync.Mutex
	state   State
	waiters []waiter

	// called for every parked waiter, in settle order; tests only
	onWaiterSettled func(ctx context.Context, err error)
}

// NewCoordinator creates an idle coordinator
func NewCoordinator(refresh RefreshFunc, store ports.TokenStore, cfg CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		refresh:   refresh,
		store:     store,
		navigator: cfg.Navigator,
		events:    cfg.Events,
		logger:    cfg.Logger,
		loginPath: cfg.LoginPath,
		timeout:   cfg.Timeout,
	}
	if c.navigator == nil {
		c.navigator = ports.NavigatorFunc(func(context.Context, string) {})
	}
	if c.events == nil {
		c.events = nopEvents{}
	}
	if c.logger == nil {
		c.logger = watermill.NopLogger{}
	}
	if c.loginPath == "" {
		c.loginPath = DefaultLoginPath
	}
	return c
}

// State returns the current state
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Waiting returns the number of parked callers
func (c *Coordinator) Waiting() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.waiters)
}

// Refresh returns a fresh access token. The first caller in the Idle state runs
// the refresh; everybody arriving before it finishes shares its outcome.
// A parked caller stops waiting when its ctx is done. The refresh itself is not
// bound to any caller's ctx, only to the configured timeout.
func (c *Coordinator) Refresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state == StateRefreshing {
		w := waiter{ctx: ctx, ch: make(chan outcome, 1)}
		c.waiters = append(c.waiters, w)
		c.mu.Unlock()

		select {
		case out := <-w.ch:
			return out.access, out.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.state = StateRefreshing
	c.mu.Unlock()

	access, err := c.lead(ctx)
	c.settle(access, err)
	return access, err
}

func (c *Coordinator) lead(ctx context.Context) (string, error) {
	detached := context.WithoutCancel(ctx)
	rctx := detached
	if c.timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(detached, c.timeout)
		defer cancel()
	}

	c.logger.Debug("Refreshing access token", nil)

	access, err := c.refresh(rctx)
	if err == nil && access == "" {
		err = core.ErrMissingAccessToken
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", core.ErrRefreshFailed, err)
		c.logout(detached, err)
		return "", err
	}

	c.logger.Info("Access token refreshed", nil)
	if err := c.events.PublishTokenRefreshed(detached); err != nil {
		c.logger.Error("Failed to publish refreshed event", err, nil)
	}
	return access, nil
}

// logout destroys the credential pair and forces navigation to the login page.
// It runs while the coordinator is still Refreshing so a failed cycle navigates once.
func (c *Coordinator) logout(ctx context.Context, cause error) {
	c.logger.Error("Token refresh failed, logging out", cause, watermill.LogFields{"redirect": c.loginPath})

	if err := c.store.Clear(ctx); err != nil {
		c.logger.Error("Failed to clear credentials", err, nil)
	}
	if err := c.events.PublishLogout(ctx, ports.LogoutReasonRefreshFailure); err != nil {
		c.logger.Error("Failed to publish logout event", err, nil)
	}
	c.navigator.Navigate(ctx, c.loginPath)
}

// settle drains the queue, returns to Idle and hands the outcome to every waiter in FIFO order
func (c *Coordinator) settle(access string, err error) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.state = StateIdle
	c.mu.Unlock()

	if len(waiters) > 0 {
		c.logger.Debug("Settling parked requests", watermill.LogFields{"waiters": len(waiters)})
	}

	for _, w := range waiters {
		w.ch <- outcome{access: access, err: err}
		if c.onWaiterSettled != nil {
			c.onWaiterSettled(w.ctx, err)
		}
	}
}

type nopEvents struct{}

func (nopEvents) PublishLogout(context.Context, string) error { return nil }
func (nopEvents) PublishTokenRefreshed(context.Context) error { return nil }
