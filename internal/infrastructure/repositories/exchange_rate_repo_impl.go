package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/infrastructure/models"
)

// advisory lock key shared by every rate publisher
const ratePublishLockKey = 7_304_151

// ExchangeRateRepository implements rate data operations
type ExchangeRateRepository struct {
	db *gorm.DB
}

// NewExchangeRateRepository creates a new exchange rate repository
func NewExchangeRateRepository(db *gorm.DB) *ExchangeRateRepository {
	return &ExchangeRateRepository{db: db}
}

// LockForPublish takes a transaction-scoped advisory lock on PostgreSQL.
// Other dialects serialise writers on their own.
func (r *ExchangeRateRepository) LockForPublish(ctx context.Context) error {
	db := GetDB(ctx, r.db)
	if db.Dialector.Name() != "postgres" || !inTx(ctx) {
		return nil
	}
	return db.Exec("SELECT pg_advisory_xact_lock(?)", ratePublishLockKey).Error
}

// DeactivateAll clears the active flag and returns the rows it touched as they
// are after the update.
func (r *ExchangeRateRepository) DeactivateAll(ctx context.Context) ([]*entities.ExchangeRate, error) {
	db := GetDB(ctx, r.db)

	var ms []models.ExchangeRate
	if err := db.Where("is_active = ?", true).Order("published_at DESC").Order("id DESC").Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entities.ExchangeRate, 0, len(ms))
	if len(ms) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(ms))
	for i := range ms {
		ids = append(ids, ms[i].ID)
	}
	if err := db.Model(&models.ExchangeRate{}).
		Where("id IN ?", ids).
		Update("is_active", false).Error; err != nil {
		return nil, err
	}

	for i := range ms {
		rate := r.toEntity(&ms[i])
		rate.IsActive = false
		out = append(out, rate)
	}
	return out, nil
}

func (r *ExchangeRateRepository) Create(ctx context.Context, rate *entities.ExchangeRate) error {
	if rate.PublishedAt.IsZero() {
		rate.PublishedAt = time.Now().UTC()
	}
	m := &models.ExchangeRate{
		ID:               rate.ID,
		SolesToBolivares: rate.SolesToBolivares,
		BolivaresToSoles: rate.BolivaresToSoles,
		PublishedBy:      rate.PublishedBy,
		PublishedAt:      rate.PublishedAt,
		IsActive:         rate.IsActive,
	}
	return mapNotFound(GetDB(ctx, r.db).Create(m).Error)
}

// GetActive returns the active rate or ErrNotFound
func (r *ExchangeRateRepository) GetActive(ctx context.Context) (*entities.ExchangeRate, error) {
	var m models.ExchangeRate
	if err := GetDB(ctx, r.db).
		Where("is_active = ?", true).
		Order("published_at DESC").
		Order("id DESC").
		First(&m).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return r.toEntity(&m), nil
}

// ListRecent returns the newest rates first
func (r *ExchangeRateRepository) ListRecent(ctx context.Context, limit int) ([]*entities.ExchangeRate, error) {
	var ms []models.ExchangeRate
	if err := GetDB(ctx, r.db).
		Order("published_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	out := make([]*entities.ExchangeRate, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out, nil
}

func (r *ExchangeRateRepository) toEntity(m *models.ExchangeRate) *entities.ExchangeRate {
	return &entities.ExchangeRate{
		ID:               m.ID,
		SolesToBolivares: m.SolesToBolivares,
		BolivaresToSoles: m.BolivaresToSoles,
		PublishedBy:      m.PublishedBy,
		PublishedAt:      m.PublishedAt,
		IsActive:         m.IsActive,
	}
}
