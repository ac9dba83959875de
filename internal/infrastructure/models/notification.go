package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Title     string    `gorm:"type:varchar(200);not null"`
	Message   string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:varchar(16);not null"`
	Read      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"index"`
}

func (Notification) TableName() string {
	return "notifications"
}
