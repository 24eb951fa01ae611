package ports

import (
	"context"

	"github.com/layer-3/turfbook/core"
)

// Fixed keys of the persistent credential slot
const (
	AccessKey  = "access"
	RefreshKey = "refresh"
)

// TokenStore holds the current credential pair.
// Load returns a zero Credentials value when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (core.Credentials, error)
	Save(ctx context.Context, creds core.Credentials) error
	SetAccess(ctx context.Context, access string) error
	Clear(ctx context.Context) error
}
