package repositories

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/infrastructure/models"
)

// UserRepository implements profile data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a profile row
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	m := r.toModel(user)
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return mapNotFound(err)
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return r.toEntity(&m), nil
}

// GetByIDForUpdate gets a user by ID holding a row lock when inside a transaction
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	db := GetDB(ctx, r.db)
	if inTx(ctx) {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var m models.User
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return r.toEntity(&m), nil
}

// GetByEmail gets a user by email, case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&m).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return r.toEntity(&m), nil
}

// UpdateProfile writes the editable profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, user *entities.User) error {
	result := GetDB(ctx, r.db).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]interface{}{
			"full_name":  user.FullName.Ptr(),
			"phone":      user.Phone.Ptr(),
			"country":    user.Country.Ptr(),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpdateStatus changes the account status; approvedAt is written only when set
func (r *UserRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.UserStatus, approvedAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	}
	if approvedAt != nil {
		updates["approved_at"] = *approvedAt
	}

	result := GetDB(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// UpdateRole changes the account role
func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role entities.UserRole) error {
	result := GetDB(ctx, r.db).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"role": string(role), "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListByStatus lists users with role and status, oldest first
func (r *UserRepository) ListByStatus(ctx context.Context, role entities.UserRole, status entities.UserStatus) ([]*entities.User, error) {
	var ms []models.User
	if err := GetDB(ctx, r.db).
		Where("role = ? AND status = ?", string(role), string(status)).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

// ListIDsByRole returns the ids of every user with role
func (r *UserRepository) ListIDsByRole(ctx context.Context, role entities.UserRole) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := GetDB(ctx, r.db).Model(&models.User{}).
		Where("role = ?", string(role)).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListApprovedSince returns clients approved after since, newest first
func (r *UserRepository) ListApprovedSince(ctx context.Context, since time.Time, limit int) ([]*entities.User, error) {
	q := GetDB(ctx, r.db).
		Where("role = ? AND status = ? AND approved_at >= ?", string(entities.UserRoleClient), string(entities.UserStatusActive), since).
		Order("approved_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var ms []models.User
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

// Count counts all profiles
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&models.User{}).Count(&total).Error
	return total, err
}

// CountByStatus counts users with role grouped by status
func (r *UserRepository) CountByStatus(ctx context.Context, role entities.UserRole) (entities.UserCounts, error) {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := GetDB(ctx, r.db).Model(&models.User{}).
		Select("status, COUNT(*) AS total").
		Where("role = ?", string(role)).
		Group("status").
		Scan(&rows).Error; err != nil {
		return entities.UserCounts{}, err
	}

	var counts entities.UserCounts
	for _, row := range rows {
		counts.Total += row.Total
		switch entities.UserStatus(row.Status) {
		case entities.UserStatusActive:
			counts.Active = row.Total
		case entities.UserStatusPendingKYC:
			counts.PendingKYC = row.Total
		case entities.UserStatusSuspended:
			counts.Suspended = row.Total
		}
	}
	return counts, nil
}

func (r *UserRepository) toModel(u *entities.User) *models.User {
	return &models.User{
		ID:         u.ID,
		Email:      u.Email,
		Role:       string(u.Role),
		Status:     string(u.Status),
		FullName:   u.FullName.Ptr(),
		Phone:      u.Phone.Ptr(),
		Country:    u.Country.Ptr(),
		ApprovedAt: u.ApprovedAt.Ptr(),
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func (r *UserRepository) toEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:         m.ID,
		Email:      m.Email,
		Role:       entities.UserRole(m.Role),
		Status:     entities.UserStatus(m.Status),
		FullName:   null.StringFromPtr(m.FullName),
		Phone:      null.StringFromPtr(m.Phone),
		Country:    null.StringFromPtr(m.Country),
		ApprovedAt: null.TimeFromPtr(m.ApprovedAt),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r *UserRepository) toEntities(ms []models.User) []*entities.User {
	out := make([]*entities.User, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out
}

// CredentialRepository stores local-provider password hashes
type CredentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) Create(ctx context.Context, id uuid.UUID, email, passwordHash string) error {
	m := &models.AuthCredential{
		ID:           id,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	return mapNotFound(GetDB(ctx, r.db).Create(m).Error)
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (uuid.UUID, string, error) {
	var m models.AuthCredential
	if err := GetDB(ctx, r.db).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&m).Error; err != nil {
		return uuid.Nil, "", mapNotFound(err)
	}
	return m.ID, m.PasswordHash, nil
}

func (r *CredentialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&models.AuthCredential{}).Error
}
