package realtime

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/logger"
)

// maxNotifyPayload stays under PostgreSQL's 8000 byte NOTIFY limit.
const maxNotifyPayload = 7900

// ErrPayloadTooLarge is returned when an event cannot fit a NOTIFY payload.
var ErrPayloadTooLarge = errors.New("change event exceeds notify payload limit")

// PostgresBus uses LISTEN / NOTIFY. Publishing goes through the pool;
// listening holds a dedicated pq.Listener connection.
type PostgresBus struct {
	db      *sql.DB
	dsn     string
	channel string
}

// NewPostgresBus creates a bus publishing through db and listening on dsn
func NewPostgresBus(db *sql.DB, dsn, channel string) *PostgresBus {
	return &PostgresBus{db: db, dsn: dsn, channel: channel}
}

func (b *PostgresBus) Publish(ctx context.Context, ev *entities.ChangeEvent) error {
	payload, err := fitNotifyPayload(ev)
	if err != nil {
		return err
	}
	_, err = b.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", b.channel, string(payload))
	return err
}

// fitNotifyPayload drops the previous row image when the event is too big.
func fitNotifyPayload(ev *entities.ChangeEvent) ([]byte, error) {
	payload, err := encodeEvent(ev)
	if err != nil {
		return nil, err
	}
	if len(payload) <= maxNotifyPayload {
		return payload, nil
	}

	trimmed := *ev
	trimmed.Old = nil
	payload, err = encodeEvent(&trimmed)
	if err != nil {
		return nil, err
	}
	if len(payload) > maxNotifyPayload {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return payload, nil
}

// Subscribe opens a listener. When the listener reconnects the returned
// channel is closed, since notifications sent in between are gone.
func (b *PostgresBus) Subscribe(ctx context.Context) (<-chan *entities.ChangeEvent, error) {
	listener := pq.NewListener(b.dsn, time.Second, 30*time.Second, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn(context.Background(), "Postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	if err := listener.Listen(b.channel); err != nil {
		_ = listener.Close()
		return nil, fmt.Errorf("listen %s: %w", b.channel, err)
	}

	out := make(chan *entities.ChangeEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer listener.Close()

		ping := time.NewTicker(90 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ping.C:
				if err := listener.Ping(); err != nil {
					logger.Warn(ctx, "Postgres listener ping failed", zap.Error(err))
					return
				}
			case n := <-listener.Notify:
				if n == nil {
					return
				}
				ev, err := decodeEvent([]byte(n.Extra))
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

// Close is a no-op; the pool is owned by the caller.
func (b *PostgresBus) Close() error {
	return nil
}
