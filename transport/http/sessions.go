package http

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/layer-3/turfbook/core"
	"github.com/layer-3/turfbook/ports"
)

// ErrTokenRevoked is returned for refresh ids that were rotated away
var ErrTokenRevoked = errors.New("token has been revoked")

// Sessions issues and validates token pairs for the backend double
type Sessions struct {
	tokenizer   ports.Tokenizer
	revocations ports.RevocationList
	now         func() time.Time

	accessTTL  time.Duration
	refreshTTL time.Duration
	rotate     bool
}

// Issue creates a fresh session for userID and returns its access and refresh tokens
func (s *Sessions) Issue(userID int64) (string, string, error) {
	session := s.newSession(userID, uuid.NewString())

	accessToken, err := s.tokenizer.SessionToAccessToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}

	refreshToken, err := s.tokenizer.SessionToRefreshToken(session)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// Refresh exchanges a refresh token for a new access token. With rotation enabled
// the old refresh id is revoked and a new refresh token is returned; otherwise the
// returned refresh token is empty.
func (s *Sessions) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return "", "", err
	}

	invalidated, err := s.revocations.IsTokenInvalidated(ctx, session.RefreshID)
	if err != nil {
		return "", "", fmt.Errorf("failed to check token invalidation: %w", err)
	}
	if invalidated {
		return "", "", ErrTokenRevoked
	}

	if !s.rotate {
		next := s.newSession(session.UserID, session.RefreshID)
		accessToken, err := s.tokenizer.SessionToAccessToken(next)
		if err != nil {
			return "", "", fmt.Errorf("failed to create access token: %w", err)
		}
		return accessToken, "", nil
	}

	// the old refresh id stays revoked for as long as it would have been valid
	remaining := session.RefreshExpiry.Sub(s.now())
	if err := s.revocations.InvalidateToken(ctx, session.RefreshID, remaining); err != nil {
		return "", "", fmt.Errorf("failed to invalidate old token: %w", err)
	}

	return s.Issue(session.UserID)
}

// Validate parses an access token and rejects it once its refresh id is revoked
func (s *Sessions) Validate(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, err
	}

	if session.RefreshID != "" {
		invalidated, err := s.revocations.IsTokenInvalidated(ctx, session.RefreshID)
		if err != nil {
			return nil, fmt.Errorf("failed to check token invalidation: %w", err)
		}
		if invalidated {
			return nil, ErrTokenRevoked
		}
	}

	return session, nil
}

func (s *Sessions) newSession(userID int64, refreshID string) *core.Session {
	now := s.now()
	return &core.Session{
		ID:            uuid.NewString(),
		UserID:        userID,
		IssuedAt:      now,
		AccessExpiry:  now.Add(s.accessTTL),
		RefreshExpiry: now.Add(s.refreshTTL),
		RefreshID:     refreshID,
	}
}
