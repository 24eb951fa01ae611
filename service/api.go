package service

import "context"

// API is the authenticated JSON surface of client.Client used by the services
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Patch(ctx context.Context, path string, in, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Refresher runs a refresh through the shared coordinator
type Refresher interface {
	RefreshNow(ctx context.Context) (string, error)
}
