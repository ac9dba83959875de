package repositories

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/infrastructure/models"
)

// AuditLogRepository implements audit trail operations
type AuditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *entities.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	userID, err := nullToUUIDPtr(entry.UserID)
	if err != nil {
		return err
	}

	m := &models.AuditLog{
		ID:        entry.ID,
		UserID:    userID,
		Action:    entry.Action,
		Table:     entry.TableName,
		RecordID:  entry.RecordID,
		OldValues: nullJSONToPtr(entry.OldValues),
		NewValues: nullJSONToPtr(entry.NewValues),
		IPAddress: entry.IPAddress.Ptr(),
		UserAgent: entry.UserAgent.Ptr(),
		CreatedAt: entry.CreatedAt,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// List returns a page of entries, newest first
func (r *AuditLogRepository) List(ctx context.Context, limit, offset int) ([]*entities.AuditLog, int64, error) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	q := db.Model(&models.AuditLog{}).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	var ms []models.AuditLog
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*entities.AuditLog, 0, len(ms))
	for i := range ms {
		m := ms[i]
		out = append(out, &entities.AuditLog{
			ID:        m.ID,
			UserID:    uuidPtrToNull(m.UserID),
			Action:    m.Action,
			TableName: m.Table,
			RecordID:  m.RecordID,
			OldValues: ptrToNullJSON(m.OldValues),
			NewValues: ptrToNullJSON(m.NewValues),
			IPAddress: null.StringFromPtr(m.IPAddress),
			UserAgent: null.StringFromPtr(m.UserAgent),
			CreatedAt: m.CreatedAt,
		})
	}
	return out, total, nil
}
