package realtime

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/logger"
)

// RedisBus uses Redis PUBLISH / SUBSCRIBE on a single channel.
type RedisBus struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisBus creates a bus on channel
func NewRedisBus(client redis.UniversalClient, channel string) *RedisBus {
	return &RedisBus{client: client, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, ev *entities.ChangeEvent) error {
	payload, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context) (<-chan *entities.ChangeEvent, error) {
	pubsub := b.client.Subscribe(ctx, b.channel)
	// wait for the subscription to be confirmed so no publish is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}

	out := make(chan *entities.ChangeEvent, subscriberBuffer)
	msgs := pubsub.Channel()

	go func() {
		defer close(out)
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				ev, err := decodeEvent([]byte(msg.Payload))
				if err != nil {
					logger.Warn(ctx, "Dropping malformed change event", zap.Error(err))
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close is a no-op; the client is owned by the caller.
func (b *RedisBus) Close() error {
	return nil
}
