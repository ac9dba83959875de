package repositories

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	domainerrors "solbol.backend/internal/domain/errors"
)

func mapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainerrors.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domainerrors.ErrAlreadyExists
	}
	return err
}

func uuidPtrToNull(id *uuid.UUID) null.String {
	if id == nil {
		return null.String{}
	}
	return null.StringFrom(id.String())
}

func nullToUUIDPtr(s null.String) (*uuid.UUID, error) {
	if !s.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(s.String)
	if err != nil {
		return nil, fmt.Errorf("invalid uuid %q: %w", s.String, err)
	}
	return &id, nil
}

func nullJSONToPtr(j null.JSON) *string {
	if !j.Valid {
		return nil
	}
	s := string(j.JSON)
	return &s
}

func ptrToNullJSON(s *string) null.JSON {
	if s == nil {
		return null.JSON{}
	}
	return null.JSONFrom([]byte(*s))
}

// aggTime scans aggregate timestamps, which sqlite returns as text.
type aggTime struct {
	Time  time.Time
	Valid bool
}

var aggTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (a *aggTime) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		a.Valid = false
		return nil
	case time.Time:
		a.Time, a.Valid = v, true
		return nil
	case []byte:
		return a.parse(string(v))
	case string:
		return a.parse(v)
	default:
		return fmt.Errorf("unsupported aggregate time type %T", src)
	}
}

func (a aggTime) Value() (driver.Value, error) {
	if !a.Valid {
		return nil, nil
	}
	return a.Time, nil
}

func (a *aggTime) parse(s string) error {
	for _, layout := range aggTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			a.Time, a.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unparseable aggregate time %q", s)
}
