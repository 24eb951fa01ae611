package ports

import "context"

// Logout reasons carried by logout events
const (
	LogoutReasonUser           = "user"
	LogoutReasonRefreshFailure = "refresh_failure"
)

// EventPublisher notifies other parts of the application about session changes
type EventPublisher interface {
	PublishLogout(ctx context.Context, reason string) error
	PublishTokenRefreshed(ctx context.Context) error
}
