package repositories

import (
	"context"

	"solbol.backend/internal/domain/entities"
)

// AuditLogRepository defines audit trail operations
type AuditLogRepository interface {
	Create(ctx context.Context, entry *entities.AuditLog) error
	List(ctx context.Context, limit, offset int) ([]*entities.AuditLog, int64, error)
}
