package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/internal/infrastructure/realtime"
	"solbol.backend/pkg/livelist"
	"solbol.backend/pkg/logger"
)

// RateTracker keeps the latest rates in memory, following exchange_rates
// changes from the hub and reloading from the database whenever the feed
// is interrupted.
type RateTracker struct {
	repo  repositories.ExchangeRateRepository
	hub   *realtime.Hub
	list  *livelist.List[*entities.ExchangeRate]
	ready chan struct{}
	once  sync.Once
}

// NewRateTracker creates a tracker; call Run to start it.
func NewRateTracker(repo repositories.ExchangeRateRepository, hub *realtime.Hub) *RateTracker {
	t := &RateTracker{repo: repo, hub: hub, ready: make(chan struct{})}
	t.list = livelist.New(
		func(r *entities.ExchangeRate) string { return r.ID.String() },
		livelist.WithLimit[*entities.ExchangeRate](rateHistoryLimit),
		livelist.WithOnChange(func([]*entities.ExchangeRate) {
			t.once.Do(func() { close(t.ready) })
		}),
		livelist.WithOnError[*entities.ExchangeRate](func(err error) {
			logger.Warn(context.Background(), "Rate tracker resync failed", zap.Error(err))
		}),
	)
	return t
}

// Run follows the feed until ctx ends.
func (t *RateTracker) Run(ctx context.Context) {
	err := t.list.Run(ctx, t)
	if err != nil && ctx.Err() == nil {
		logger.Error(ctx, "Rate tracker stopped", zap.Error(err))
	}
}

// Current returns the active rate once the first load has been applied.
func (t *RateTracker) Current() (*entities.ExchangeRate, bool) {
	select {
	case <-t.ready:
	default:
		return nil, false
	}
	return t.list.Find(func(r *entities.ExchangeRate) bool { return r.IsActive })
}

// Ready is closed after the first load.
func (t *RateTracker) Ready() <-chan struct{} {
	return t.ready
}

// Rates returns the tracked rates, newest first.
func (t *RateTracker) Rates() []*entities.ExchangeRate {
	return t.list.Items()
}

// Load implements livelist.Source.
func (t *RateTracker) Load(ctx context.Context) ([]*entities.ExchangeRate, error) {
	return t.repo.ListRecent(ctx, rateHistoryLimit)
}

// Subscribe implements livelist.Source.
func (t *RateTracker) Subscribe(ctx context.Context) (<-chan livelist.Change[*entities.ExchangeRate], error) {
	sub := t.hub.Subscribe(realtime.Viewer{IsAdmin: true}, entities.TableExchangeRates)
	out := make(chan livelist.Change[*entities.ExchangeRate])

	go func() {
		defer close(out)
		defer t.hub.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				change, err := rateChange(ev)
				if err != nil {
					logger.Warn(ctx, "Skipping malformed rate event", zap.Error(err))
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func rateChange(ev *entities.ChangeEvent) (livelist.Change[*entities.ExchangeRate], error) {
	raw := ev.New
	if ev.Type == entities.ChangeDelete {
		raw = ev.Old
	}
	var rate entities.ExchangeRate
	if err := json.Unmarshal(raw, &rate); err != nil {
		return livelist.Change[*entities.ExchangeRate]{}, fmt.Errorf("decode %s event %s: %w", ev.Table, ev.RecordID, err)
	}
	return livelist.Change[*entities.ExchangeRate]{Op: livelist.Op(ev.Type), Item: &rate}, nil
}
