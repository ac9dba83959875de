package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/infrastructure/models"
)

// NotificationRepository implements notification data operations
type NotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	m := &models.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// ListByUser returns the newest notifications of userID
func (r *NotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*entities.Notification, error) {
	var ms []models.Notification
	q := GetDB(ctx, r.db).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}

	out := make([]*entities.Notification, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&models.Notification{}).
		Where("user_id = ? AND \"read\" = ?", userID, false).
		Count(&total).Error
	return total, err
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Notification, error) {
	var m models.Notification
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return r.toEntity(&m), nil
}

// MarkRead flags a notification owned by userID as read
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification of userID and returns their ids
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	db := GetDB(ctx, r.db)

	var ids []uuid.UUID
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND \"read\" = ?", userID, false).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return ids, nil
	}

	if err := db.Model(&models.Notification{}).
		Where("id IN ?", ids).
		Update("read", true).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *NotificationRepository) toEntity(m *models.Notification) *entities.Notification {
	return &entities.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Title:     m.Title,
		Message:   m.Message,
		Type:      entities.NotificationType(m.Type),
		Read:      m.Read,
		CreatedAt: m.CreatedAt,
	}
}
