package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"solbol.backend/pkg/logger"
)

// StaleOrderExpirer cancels pending orders older than ttl and returns how
// many it cancelled.
type StaleOrderExpirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (int, error)
}

// StaleOrderJob cancels orders that were never paid
type StaleOrderJob struct {
	orders  StaleOrderExpirer
	ttl     time.Duration
	timeout time.Duration
}

func NewStaleOrderJob(orders StaleOrderExpirer, ttl time.Duration) *StaleOrderJob {
	return &StaleOrderJob{
		orders:  orders,
		ttl:     ttl,
		timeout: 2 * time.Minute,
	}
}

// Name identifies the job in logs.
func (j *StaleOrderJob) Name() string {
	return "stale_order_expiry"
}

// Run performs one sweep.
func (j *StaleOrderJob) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	cancelled, err := j.orders.ExpireStale(ctx, j.ttl)
	if err != nil {
		logger.Error(ctx, "Stale order sweep failed", zap.Error(err))
		return
	}
	if cancelled > 0 {
		logger.Info(ctx, "Cancelled stale pending orders",
			zap.Int("count", cancelled),
			zap.Duration("ttl", j.ttl),
		)
	}
}
