package models

import (
	"time"

	"github.com/google/uuid"
)

type KYCDocument struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index"`
	DocumentType string     `gorm:"type:varchar(20);not null"`
	FileURL      string     `gorm:"type:text;not null"`
	UploadedAt   time.Time  `gorm:"not null"`
	Verified     bool       `gorm:"not null;default:false"`
	VerifiedAt   *time.Time
	VerifiedBy   *uuid.UUID `gorm:"type:uuid"`
}

func (KYCDocument) TableName() string {
	return "kyc_documents"
}
