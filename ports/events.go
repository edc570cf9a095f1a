package ports

import "context"

// EventPublisher notifies other instances about state changes.
type EventPublisher interface {
	PublishLogout(ctx context.Context, address string, sessionID string) error
	PublishFaucetClaim(ctx context.Context, address string) error
	PublishAllowlistChange(ctx context.Context, added, removed []string) error
}
