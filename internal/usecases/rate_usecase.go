package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/metrics"
	"solbol.backend/pkg/utils"
)

const (
	rateHistoryLimit  = 10
	inverseRatePlaces = 8
)

// RateUsecase publishes and serves exchange rates
type RateUsecase struct {
	repo    repositories.ExchangeRateRepository
	uow     repositories.UnitOfWork
	audit   *AuditUsecase
	events  EventEmitter
	tracker *RateTracker

	defaultSolesToBolivares decimal.Decimal
	defaultBolivaresToSoles decimal.Decimal
}

// NewRateUsecase creates a new rate usecase. The defaults are served by
// Current while nothing has been published.
func NewRateUsecase(
	repo repositories.ExchangeRateRepository,
	uow repositories.UnitOfWork,
	audit *AuditUsecase,
	events EventEmitter,
	defaultSolesToBolivares, defaultBolivaresToSoles decimal.Decimal,
) *RateUsecase {
	return &RateUsecase{
		repo:                    repo,
		uow:                     uow,
		audit:                   audit,
		events:                  emitterOrNoop(events),
		defaultSolesToBolivares: defaultSolesToBolivares,
		defaultBolivaresToSoles: defaultBolivaresToSoles,
	}
}

// SetTracker makes Current answer from the live rate list.
func (u *RateUsecase) SetTracker(t *RateTracker) {
	u.tracker = t
}

// Publish makes a new rate the only active one.
func (u *RateUsecase) Publish(ctx context.Context, adminID uuid.UUID, input *entities.PublishRateInput) (*entities.ExchangeRate, error) {
	if !input.SolesToBolivares.IsPositive() {
		return nil, domainerrors.BadRequest("soles_to_bolivares must be greater than zero")
	}
	inverse := decimal.NewFromInt(1).DivRound(input.SolesToBolivares, inverseRatePlaces)
	if input.BolivaresToSoles != nil {
		if !input.BolivaresToSoles.IsPositive() {
			return nil, domainerrors.BadRequest("bolivares_to_soles must be greater than zero")
		}
		inverse = *input.BolivaresToSoles
	}

	rate := &entities.ExchangeRate{
		ID:               utils.GenerateUUIDv7(),
		SolesToBolivares: input.SolesToBolivares,
		BolivaresToSoles: inverse,
		PublishedBy:      adminID,
		PublishedAt:      time.Now().UTC(),
		IsActive:         true,
	}

	var previous *entities.ExchangeRate
	var deactivated []*entities.ExchangeRate
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.repo.LockForPublish(txCtx); err != nil {
			return err
		}

		prev, err := u.repo.GetActive(txCtx)
		if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
			return err
		}
		previous = prev

		if deactivated, err = u.repo.DeactivateAll(txCtx); err != nil {
			return err
		}
		if err := u.repo.Create(txCtx, rate); err != nil {
			return err
		}
		return u.audit.Record(txCtx, adminID, entities.AuditRatePublished, entities.TableExchangeRates, rate.ID, previous, rate)
	})
	if err != nil {
		return nil, err
	}

	metrics.RatesPublished.Inc()
	logger.Info(ctx, "Exchange rate published",
		zap.String("rate_id", rate.ID.String()),
		zap.String("soles_to_bolivares", rate.SolesToBolivares.String()),
		zap.String("bolivares_to_soles", rate.BolivaresToSoles.String()),
	)

	events := make([]*entities.ChangeEvent, 0, len(deactivated)+1)
	for _, off := range deactivated {
		var old interface{}
		if previous != nil && previous.ID == off.ID {
			old = previous
		}
		events = append(events, changeEvent(ctx, entities.TableExchangeRates, entities.ChangeUpdate, off.ID, nil, off, old))
	}
	events = append(events, changeEvent(ctx, entities.TableExchangeRates, entities.ChangeInsert, rate.ID, nil, rate, nil))
	u.events.Emit(ctx, events...)

	return rate, nil
}

// Active returns the active rate or ErrNoActiveRate.
func (u *RateUsecase) Active(ctx context.Context) (*entities.ExchangeRate, error) {
	rate, err := u.repo.GetActive(ctx)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrNoActiveRate
		}
		return nil, err
	}
	return rate, nil
}

// Current returns the rate shown to visitors. It falls back to the
// configured demo rate and never fails.
func (u *RateUsecase) Current(ctx context.Context) *entities.CurrentRate {
	if u.tracker != nil {
		if rate, ok := u.tracker.Current(); ok {
			return rate.ToCurrentRate()
		}
	}

	rate, err := u.Active(ctx)
	if err == nil {
		return rate.ToCurrentRate()
	}
	if !errors.Is(err, domainerrors.ErrNoActiveRate) {
		logger.Error(ctx, "Failed to load active rate", zap.Error(err))
	}

	return &entities.CurrentRate{
		SolesToBolivares: u.defaultSolesToBolivares,
		BolivaresToSoles: u.defaultBolivaresToSoles,
		IsActive:         true,
		IsDefault:        true,
	}
}

// History returns the latest published rates, newest first
func (u *RateUsecase) History(ctx context.Context) ([]*entities.ExchangeRate, error) {
	rates, err := u.repo.ListRecent(ctx, rateHistoryLimit)
	if err != nil {
		return nil, err
	}
	if rates == nil {
		rates = []*entities.ExchangeRate{}
	}
	return rates, nil
}
