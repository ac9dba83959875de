// Package realtime carries committed row changes between processes and fans
// them out to connected clients.
package realtime

import (
	"context"
	"encoding/json"
	"errors"

	"solbol.backend/internal/domain/entities"
)

// ErrBusClosed is returned when publishing on a closed bus.
var ErrBusClosed = errors.New("realtime bus closed")

// Bus transports change events. The channel returned by Subscribe is closed
// when ctx ends or the underlying subscription breaks; events published
// while no subscription is open are lost, so consumers resynchronise on
// every new subscription.
type Bus interface {
	Publish(ctx context.Context, ev *entities.ChangeEvent) error
	Subscribe(ctx context.Context) (<-chan *entities.ChangeEvent, error)
	Close() error
}

func encodeEvent(ev *entities.ChangeEvent) ([]byte, error) {
	return json.Marshal(ev)
}

func decodeEvent(raw []byte) (*entities.ChangeEvent, error) {
	var ev entities.ChangeEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// subscriberBuffer bounds every per-subscription channel.
const subscriberBuffer = 256
