package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    *uuid.UUID `gorm:"type:uuid;index"`
	Action    string     `gorm:"type:varchar(64);not null"`
	Table     string     `gorm:"column:table_name;type:varchar(64);not null"`
	RecordID  string     `gorm:"type:varchar(64);not null"`
	OldValues *string    `gorm:"type:jsonb"`
	NewValues *string    `gorm:"type:jsonb"`
	IPAddress *string    `gorm:"type:varchar(64)"`
	UserAgent *string    `gorm:"type:text"`
	CreatedAt time.Time  `gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
