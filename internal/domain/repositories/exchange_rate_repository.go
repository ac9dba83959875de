package repositories

import (
	"context"

	"solbol.backend/internal/domain/entities"
)

// ExchangeRateRepository defines rate data operations
type ExchangeRateRepository interface {
	// LockForPublish serialises concurrent publishers inside a transaction.
	LockForPublish(ctx context.Context) error
	// DeactivateAll returns the rows it switched off with IsActive already false.
	DeactivateAll(ctx context.Context) ([]*entities.ExchangeRate, error)
	Create(ctx context.Context, rate *entities.ExchangeRate) error
	GetActive(ctx context.Context) (*entities.ExchangeRate, error)
	ListRecent(ctx context.Context, limit int) ([]*entities.ExchangeRate, error)
}
