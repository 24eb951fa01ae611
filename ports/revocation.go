package ports

import (
	"context"
	"time"
)

// RevocationList remembers refresh token ids that must no longer be accepted
type RevocationList interface {
	InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error
	IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error)
}
