package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/infrastructure/models"
)

// KYCDocumentRepository implements identity document operations
type KYCDocumentRepository struct {
	db *gorm.DB
}

// NewKYCDocumentRepository creates a new KYC document repository
func NewKYCDocumentRepository(db *gorm.DB) *KYCDocumentRepository {
	return &KYCDocumentRepository{db: db}
}

func (r *KYCDocumentRepository) Create(ctx context.Context, doc *entities.KYCDocument) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	verifiedBy, err := nullToUUIDPtr(doc.VerifiedBy)
	if err != nil {
		return err
	}

	m := &models.KYCDocument{
		ID:           doc.ID,
		UserID:       doc.UserID,
		DocumentType: string(doc.DocumentType),
		FileURL:      doc.FileURL,
		UploadedAt:   doc.UploadedAt,
		Verified:     doc.Verified,
		VerifiedAt:   doc.VerifiedAt.Ptr(),
		VerifiedBy:   verifiedBy,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

func (r *KYCDocumentRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.KYCDocument, error) {
	return r.ListByUsers(ctx, []uuid.UUID{userID})
}

// ListByUsers returns the documents of every user in userIDs, oldest first
func (r *KYCDocumentRepository) ListByUsers(ctx context.Context, userIDs []uuid.UUID) ([]*entities.KYCDocument, error) {
	if len(userIDs) == 0 {
		return []*entities.KYCDocument{}, nil
	}

	var ms []models.KYCDocument
	if err := GetDB(ctx, r.db).
		Where("user_id IN ?", userIDs).
		Order("uploaded_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	out := make([]*entities.KYCDocument, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, nil
}

// DeleteUnverified removes a previous upload of the same type so a re-upload replaces it
func (r *KYCDocumentRepository) DeleteUnverified(ctx context.Context, userID uuid.UUID, docType entities.DocumentType) error {
	return GetDB(ctx, r.db).
		Where("user_id = ? AND document_type = ? AND verified = ?", userID, string(docType), false).
		Delete(&models.KYCDocument{}).Error
}

// MarkVerified marks every unverified document of userID as verified
func (r *KYCDocumentRepository) MarkVerified(ctx context.Context, userID, verifiedBy uuid.UUID, at time.Time) (int64, error) {
	result := GetDB(ctx, r.db).Model(&models.KYCDocument{}).
		Where("user_id = ? AND verified = ?", userID, false).
		Updates(map[string]interface{}{
			"verified":    true,
			"verified_at": at,
			"verified_by": verifiedBy,
		})
	return result.RowsAffected, result.Error
}

func (r *KYCDocumentRepository) toEntity(m *models.KYCDocument) *entities.KYCDocument {
	return &entities.KYCDocument{
		ID:           m.ID,
		UserID:       m.UserID,
		DocumentType: entities.DocumentType(m.DocumentType),
		FileURL:      m.FileURL,
		UploadedAt:   m.UploadedAt,
		Verified:     m.Verified,
		VerifiedAt:   null.TimeFromPtr(m.VerifiedAt),
		VerifiedBy:   uuidPtrToNull(m.VerifiedBy),
	}
}
