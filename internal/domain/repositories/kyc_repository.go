package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
)

// KYCDocumentRepository defines identity document operations
type KYCDocumentRepository interface {
	Create(ctx context.Context, doc *entities.KYCDocument) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.KYCDocument, error)
	ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*entities.KYCDocument, error)
	DeleteUnverified(ctx context.Context, userID uuid.UUID, docType entities.DocumentType) error
	MarkVerified(ctx context.Context, userID, verifiedBy uuid.UUID, at time.Time) (int64, error)
}
