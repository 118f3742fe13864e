package push

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes notification payloads over Redis pub/sub.
// Frontends subscribe to their user's channel to receive them live.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher backed by the given Redis address
func NewRedisPublisher(ctx context.Context, addr string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPublisher{client: client}, nil
}

// ChannelFor returns the pub/sub channel name for a user
func ChannelFor(userID string) string {
	return fmt.Sprintf("notifications:user:%s", userID)
}

// Publish sends the payload to the user's channel as JSON
func (p *RedisPublisher) Publish(ctx context.Context, userID string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := p.client.Publish(ctx, ChannelFor(userID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}

	return nil
}

// Close closes the underlying Redis client
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
