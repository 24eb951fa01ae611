package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
)

// AuthService handles the session of the signed-in user
type AuthService struct {
	api       API
	refresher Refresher
	store     ports.TokenStore
	eventPub  ports.EventPublisher
	logger    watermill.LoggerAdapter
}

// NewAuthService creates a new authentication service
func NewAuthService(
	api API,
	refresher Refresher,
	store ports.TokenStore,
	eventPub ports.EventPublisher,
	logger watermill.LoggerAdapter,
) *AuthService {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return &AuthService{
		api:       api,
		refresher: refresher,
		store:     store,
		eventPub:  eventPub,
		logger:    logger,
	}
}

// Login exchanges email and password for a token pair, stores it and returns the profile
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, error) {
	var creds core.Credentials
	err := s.api.Post(ctx, "/user/login/", core.LoginRequest{Email: email, Password: password}, &creds)
	if err != nil {
		if core.StatusCode(err) == http.StatusUnauthorized {
			return core.User{}, fmt.Errorf("%w: %w", core.ErrInvalidCredentials, err)
		}
		return core.User{}, fmt.Errorf("login failed: %w", err)
	}
	if creds.Access == "" || creds.Refresh == "" {
		return core.User{}, fmt.Errorf("login failed: %w", core.ErrMissingAccessToken)
	}

	if err := s.store.Save(ctx, creds); err != nil {
		return core.User{}, fmt.Errorf("failed to store credentials: %w", err)
	}

	s.logger.Info("Logged in", watermill.LogFields{"email": email})
	return s.Profile(ctx)
}

// Register creates an account and signs into it
func (s *AuthService) Register(ctx context.Context, r core.Registration) (core.User, error) {
	if err := r.Validate(); err != nil {
		return core.User{}, err
	}

	if err := s.api.Post(ctx, "/user/register/", r, nil); err != nil {
		return core.User{}, fmt.Errorf("registration failed: %w", err)
	}

	return s.Login(ctx, r.Email, r.Password)
}

// Logout forgets the stored credentials
func (s *AuthService) Logout(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	if err := s.eventPub.PublishLogout(ctx, ports.LogoutReasonUser); err != nil {
		// the credentials are already gone
		s.logger.Error("Failed to publish logout event", err, nil)
	}
	return nil
}

// Profile fetches the signed-in user
func (s *AuthService) Profile(ctx context.Context) (core.User, error) {
	var u core.User
	if err := s.api.Get(ctx, "/user/profile/", &u); err != nil {
		return core.User{}, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return u, nil
}

// Authenticated reports whether a full token pair is stored
func (s *AuthService) Authenticated(ctx context.Context) (bool, error) {
	creds, err := s.store.Load(ctx)
	if err != nil {
		return false, err
	}
	return creds.Access != "" && creds.Refresh != "", nil
}

// Restore resumes a stored session. A session whose profile cannot be fetched is logged out.
func (s *AuthService) Restore(ctx context.Context) (core.User, error) {
	ok, err := s.Authenticated(ctx)
	if err != nil {
		return core.User{}, err
	}
	if !ok {
		return core.User{}, core.ErrNotAuthenticated
	}

	u, err := s.Profile(ctx)
	if err != nil {
		if logoutErr := s.Logout(ctx); logoutErr != nil {
			err = errors.Join(err, logoutErr)
		}
		return core.User{}, err
	}
	return u, nil
}

// KeepAlive refreshes the access token every interval until ctx is done.
// Ticks without a stored refresh token are skipped. A failed refresh ends the
// loop; by then the session has already been logged out.
func (s *AuthService) KeepAlive(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		creds, err := s.store.Load(ctx)
		if err != nil {
			s.logger.Error("Failed to read credentials", err, nil)
			continue
		}
		if creds.Refresh == "" {
			continue
		}

		if _, err := s.refresher.RefreshNow(ctx); err != nil {
			return err
		}
		s.logger.Debug("Session kept alive", nil)
	}
}
