package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"

	"github.com/prodoxx/myqa-is/internal/models"
)

// EventsChannel carries every committed marketplace event.
const EventsChannel = "marketplace.events"

// RedisPublisher publishes marketplace events to Redis subscribers
type RedisPublisher interface {
	Publish(ctx context.Context, event *models.Event) error
	Ping(ctx context.Context) error
	Close() error
}

type redisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher creates a new Redis publisher
func NewRedisPublisher(ctx context.Context, redisURL string) (RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// maint_notifications is not available on Redis 7
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisPublisherWithClient(client, EventsChannel), nil
}

// NewRedisPublisherWithClient wraps an existing client
func NewRedisPublisherWithClient(client redis.UniversalClient, channel string) RedisPublisher {
	return &redisPublisher{client: client, channel: channel}
}

// Publish sends the event as JSON on the events channel
func (p *redisPublisher) Publish(ctx context.Context, event *models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}
	return nil
}

func (p *redisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (p *redisPublisher) Close() error {
	return p.client.Close()
}
