package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/metrics"
)

// Viewer identifies who a subscription delivers to.
type Viewer struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// CanSee applies the per-table visibility rules.
func (v Viewer) CanSee(ev *entities.ChangeEvent) bool {
	switch ev.Table {
	case entities.TableExchangeRates:
		return true
	case entities.TableOrders:
		return v.IsAdmin || v.owns(ev)
	case entities.TableNotifications:
		return v.owns(ev)
	case entities.TableUsers, entities.TableKYCDocuments:
		return v.IsAdmin
	default:
		return false
	}
}

func (v Viewer) owns(ev *entities.ChangeEvent) bool {
	return ev.OwnerID != nil && *ev.OwnerID == v.UserID
}

// Subscription receives the events its viewer may see. C is closed when the
// subscription ends; Dropped then reports whether the hub cut it off so
// the consumer must reload its state.
type Subscription struct {
	C <-chan *entities.ChangeEvent

	ch      chan *entities.ChangeEvent
	viewer  Viewer
	tables  map[string]bool
	dropped atomic.Bool
}

// Dropped reports whether the hub closed the subscription because events
// could not be delivered.
func (s *Subscription) Dropped() bool {
	return s.dropped.Load()
}

func (s *Subscription) wants(ev *entities.ChangeEvent) bool {
	if len(s.tables) > 0 && !s.tables[ev.Table] {
		return false
	}
	return s.viewer.CanSee(ev)
}

// Hub holds one bus subscription per process and fans events out to local
// subscribers.
type Hub struct {
	bus     Bus
	buffer  int
	backoff time.Duration

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithBuffer sets the per-subscriber buffer.
func WithBuffer(n int) HubOption {
	return func(h *Hub) { h.buffer = n }
}

// WithReconnectBackoff sets the pause before resubscribing to the bus.
func WithReconnectBackoff(d time.Duration) HubOption {
	return func(h *Hub) { h.backoff = d }
}

// NewHub creates a hub over bus
func NewHub(bus Bus, opts ...HubOption) *Hub {
	h := &Hub{
		bus:     bus,
		buffer:  64,
		backoff: 2 * time.Second,
		subs:    make(map[*Subscription]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a subscriber for tables (all tables when empty).
func (h *Hub) Subscribe(viewer Viewer, tables ...string) *Subscription {
	ch := make(chan *entities.ChangeEvent, h.buffer)
	s := &Subscription{C: ch, ch: ch, viewer: viewer}
	if len(tables) > 0 {
		s.tables = make(map[string]bool, len(tables))
		for _, t := range tables {
			s.tables[t] = true
		}
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeSubscribers.Inc()
	return s
}

// Unsubscribe removes s and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s)
}

func (h *Hub) removeLocked(s *Subscription) {
	if _, ok := h.subs[s]; !ok {
		return
	}
	delete(h.subs, s)
	close(s.ch)
	metrics.RealtimeSubscribers.Dec()
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Dispatch delivers ev to every subscriber that may see it. Subscribers
// whose buffer is full are dropped.
func (h *Hub) Dispatch(ev *entities.ChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		if !s.wants(ev) {
			continue
		}
		select {
		case s.ch <- ev:
		default:
			s.dropped.Store(true)
			h.removeLocked(s)
		}
	}
}

// dropAll cuts off every subscriber; used when the bus subscription was
// lost and events may have been missed.
func (h *Hub) dropAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs {
		s.dropped.Store(true)
		h.removeLocked(s)
	}
}

// Run consumes the bus until ctx ends, resubscribing after failures.
func (h *Hub) Run(ctx context.Context) {
	first := true
	for {
		events, err := h.bus.Subscribe(ctx)
		if err != nil {
			logger.Error(ctx, "Realtime bus subscribe failed", zap.Error(err))
		} else {
			if !first {
				h.dropAll()
			}
			first = false
			for ev := range events {
				h.Dispatch(ev)
			}
		}

		if ctx.Err() != nil {
			h.dropAll()
			return
		}
		logger.Warn(ctx, "Realtime bus subscription ended; resubscribing", zap.Duration("backoff", h.backoff))

		select {
		case <-ctx.Done():
			h.dropAll()
			return
		case <-time.After(h.backoff):
		}
	}
}
