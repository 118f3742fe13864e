package push

import "context"

// Publisher delivers real-time notification payloads to per-user channels.
// Persisted notifications do not depend on it; delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, userID string, payload interface{}) error
	Close() error
}

// NopPublisher discards all payloads. Used when no broker is configured.
type NopPublisher struct{}

// Publish discards the payload
func (NopPublisher) Publish(ctx context.Context, userID string, payload interface{}) error {
	return nil
}

// Close is a no-op
func (NopPublisher) Close() error {
	return nil
}
