package repositories

import (
	"context"

	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
)

// NotificationRepository defines notification data operations
type NotificationRepository interface {
	Create(ctx context.Context, n *entities.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}
