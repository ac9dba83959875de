package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRate rows; the partial unique index keeps a single active rate.
type ExchangeRate struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SolesToBolivares decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	BolivaresToSoles decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	PublishedBy      uuid.UUID       `gorm:"type:uuid;not null"`
	PublishedAt      time.Time       `gorm:"not null;index"`
	IsActive         bool            `gorm:"not null;default:false;uniqueIndex:idx_exchange_rates_single_active,where:is_active = true"`
}

func (ExchangeRate) TableName() string {
	return "exchange_rates"
}
