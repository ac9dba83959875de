package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the profile row; its id is the identity provider's user id.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email      string     `gorm:"type:varchar(255);uniqueIndex;not null"`
	Role       string     `gorm:"type:varchar(20);not null;index"`
	Status     string     `gorm:"type:varchar(20);not null;index"`
	FullName   *string    `gorm:"type:varchar(120)"`
	Phone      *string    `gorm:"type:varchar(32)"`
	Country    *string    `gorm:"type:varchar(2)"`
	ApprovedAt *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (User) TableName() string {
	return "users"
}

// AuthCredential backs the local development identity provider.
type AuthCredential struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedAt    time.Time
}

func (AuthCredential) TableName() string {
	return "auth_credentials"
}
