package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/logger"
)

const routingKeyPrefix = "changes."

// AMQPBus publishes to a durable topic exchange; every subscriber binds an
// exclusive, auto-deleted queue to it.
type AMQPBus struct {
	conn     *amqp.Connection
	exchange string

	mu      sync.Mutex
	channel *amqp.Channel
}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewAMQPBus dials the broker and declares the exchange.
func NewAMQPBus(amqpURL, exchange string) (*AMQPBus, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}

	return &AMQPBus{conn: conn, exchange: exchange, channel: ch}, nil
}

func routingKey(table string) string {
	return routingKeyPrefix + table
}

func (b *AMQPBus) Publish(ctx context.Context, ev *entities.ChangeEvent) error {
	body, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	msg := amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Body:        body,
	}
	err = b.channel.PublishWithContext(ctx, b.exchange, routingKey(ev.Table), false, false, msg)
	if err == nil {
		return nil
	}

	// one-shot retry on a fresh channel
	logger.Warn(ctx, "AMQP publish failed; reopening channel", zap.Error(err))
	ch, chErr := b.conn.Channel()
	if chErr != nil {
		return fmt.Errorf("publish: %w (reopen: %v)", err, chErr)
	}
	b.channel = ch
	return b.channel.PublishWithContext(ctx, b.exchange, routingKey(ev.Table), false, false, msg)
}

func (b *AMQPBus) Subscribe(ctx context.Context) (<-chan *entities.ChangeEvent, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, err
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}
	if err := ch.QueueBind(q.Name, routingKeyPrefix+"#", b.exchange, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		ch.Close()
		return nil, err
	}

	out := make(chan *entities.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer ch.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				ev, err := decodeEvent(d.Body)
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

func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.channel != nil {
		b.channel.Close()
	}
	return b.conn.Close()
}
