package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
)

// UserRepository defines profile data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	UpdateProfile(ctx context.Context, user *entities.User) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.UserStatus, approvedAt *time.Time) error
	UpdateRole(ctx context.Context, id uuid.UUID, role entities.UserRole) error
	ListByStatus(ctx context.Context, role entities.UserRole, status entities.UserStatus) ([]*entities.User, error)
	ListIDsByRole(ctx context.Context, role entities.UserRole) ([]uuid.UUID, error)
	ListApprovedSince(ctx context.Context, since time.Time, limit int) ([]*entities.User, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, role entities.UserRole) (entities.UserCounts, error)
}

// CredentialRepository stores password hashes for the local identity provider
type CredentialRepository interface {
	Create(ctx context.Context, id uuid.UUID, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (id uuid.UUID, passwordHash string, err error)
	Delete(ctx context.Context, id uuid.UUID) error
}
