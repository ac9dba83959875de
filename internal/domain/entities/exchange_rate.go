package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate is a published pair of conversion rates
type ExchangeRate struct {
	ID               uuid.UUID       `json:"id"`
	SolesToBolivares decimal.Decimal `json:"soles_to_bolivares"`
	BolivaresToSoles decimal.Decimal `json:"bolivares_to_soles"`
	PublishedBy      uuid.UUID       `json:"published_by"`
	PublishedAt      time.Time       `json:"published_at"`
	IsActive         bool            `json:"is_active"`
}

// RateFor returns the rate that converts in the order's direction.
func (r *ExchangeRate) RateFor(t OrderType) decimal.Decimal {
	if t == OrderTypeBolivaresToSoles {
		return r.BolivaresToSoles
	}
	return r.SolesToBolivares
}

// PublishRateInput is the admin request body for a new rate. A missing
// inverse is derived from soles_to_bolivares.
type PublishRateInput struct {
	SolesToBolivares decimal.Decimal  `json:"soles_to_bolivares" binding:"required,gt=0"`
	BolivaresToSoles *decimal.Decimal `json:"bolivares_to_soles" binding:"omitempty,gt=0"`
}

// CurrentRate is the public rate payload. IsDefault is set when nothing has
// been published yet and the configured demo rate is served instead.
type CurrentRate struct {
	ID               *uuid.UUID      `json:"id"`
	SolesToBolivares decimal.Decimal `json:"soles_to_bolivares"`
	BolivaresToSoles decimal.Decimal `json:"bolivares_to_soles"`
	PublishedAt      *time.Time      `json:"published_at"`
	IsActive         bool            `json:"is_active"`
	IsDefault        bool            `json:"is_default"`
}

// ToCurrentRate converts a published rate to the public payload.
func (r *ExchangeRate) ToCurrentRate() *CurrentRate {
	id := r.ID
	at := r.PublishedAt
	return &CurrentRate{
		ID:               &id,
		SolesToBolivares: r.SolesToBolivares,
		BolivaresToSoles: r.BolivaresToSoles,
		PublishedAt:      &at,
		IsActive:         r.IsActive,
	}
}
