package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderNumber       string          `gorm:"type:varchar(32);uniqueIndex;not null"`
	ClientID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderType         string          `gorm:"type:varchar(24);not null"`
	AmountSend        decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	AmountReceive     decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	ExchangeRate      decimal.Decimal `gorm:"type:numeric(20,8);not null"`
	Status            string          `gorm:"type:varchar(24);not null;index"`
	SenderName        string          `gorm:"type:varchar(120);not null"`
	SenderBank        string          `gorm:"type:varchar(120);not null"`
	SenderAccount     string          `gorm:"type:varchar(64);not null"`
	ReceiverName      string          `gorm:"type:varchar(120);not null"`
	ReceiverBank      string          `gorm:"type:varchar(120);not null"`
	ReceiverAccount   string          `gorm:"type:varchar(64);not null"`
	ReceiverDocument  string          `gorm:"type:varchar(32);not null"`
	PaymentProofURL   *string         `gorm:"type:text"`
	PaymentUploadedAt *time.Time
	ConfirmedBy       *uuid.UUID `gorm:"type:uuid"`
	ConfirmedAt       *time.Time
	CompletedAt       *time.Time
	CancelledAt       *time.Time
	ClientNotes       *string `gorm:"type:text"`
	AdminNotes        *string `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"index"`
	UpdatedAt         time.Time
}

func (Order) TableName() string {
	return "orders"
}
