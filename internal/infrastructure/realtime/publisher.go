package realtime

import (
	"context"

	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/metrics"
)

// Publisher emits committed changes on the bus. Failures are logged and
// counted but never fail the write that produced them.
type Publisher struct {
	bus Bus
}

// NewPublisher creates a publisher over bus
func NewPublisher(bus Bus) *Publisher {
	return &Publisher{bus: bus}
}

// Emit publishes events in order.
func (p *Publisher) Emit(ctx context.Context, events ...*entities.ChangeEvent) {
	for _, ev := range events {
		if ev == nil {
			continue
		}
		if err := p.bus.Publish(context.WithoutCancel(ctx), ev); err != nil {
			metrics.BusPublishFailures.WithLabelValues(ev.Table).Inc()
			logger.Error(ctx, "Failed to publish change event",
				zap.String("table", ev.Table),
				zap.String("type", string(ev.Type)),
				zap.String("record_id", ev.RecordID),
				zap.Error(err),
			)
		}
	}
}
