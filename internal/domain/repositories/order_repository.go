package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
)

// OrderRepository defines order data operations
type OrderRepository interface {
	Create(ctx context.Context, order *entities.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Order, error)
	// GetByIDForUpdate reads the row with a write lock when running in a transaction.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.Order, error)
	Update(ctx context.Context, order *entities.Order) error
	List(ctx context.Context, filter entities.OrderFilter) ([]*entities.Order, int64, error)
	CountByStatus(ctx context.Context, clientID *uuid.UUID, statuses ...entities.OrderStatus) (int64, error)
	ListStalePending(ctx context.Context, before time.Time, limit int) ([]*entities.Order, error)
	ActivityByClient(ctx context.Context, clientIDs []uuid.UUID) (map[uuid.UUID]entities.ClientOrderActivity, error)
}
