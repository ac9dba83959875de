package usecases

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/pkg/utils"
)

// AuditUsecase writes and reads the audit trail
type AuditUsecase struct {
	repo repositories.AuditLogRepository
}

// NewAuditUsecase creates a new audit usecase
func NewAuditUsecase(repo repositories.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{repo: repo}
}

// Record stores an audit entry. Call it with the transaction context so the
// entry commits or rolls back with the change it describes.
func (u *AuditUsecase) Record(ctx context.Context, actor uuid.UUID, action, table string, recordID uuid.UUID, oldValues, newValues interface{}) error {
	entry := &entities.AuditLog{
		ID:        utils.GenerateUUIDv7(),
		Action:    action,
		TableName: table,
		RecordID:  recordID.String(),
	}
	if actor != uuid.Nil {
		entry.UserID = null.StringFrom(actor.String())
	}

	var err error
	if entry.OldValues, err = toNullJSON(oldValues); err != nil {
		return err
	}
	if entry.NewValues, err = toNullJSON(newValues); err != nil {
		return err
	}

	meta := entities.RequestMetaFrom(ctx)
	if meta.IPAddress != "" {
		entry.IPAddress = null.StringFrom(meta.IPAddress)
	}
	if meta.UserAgent != "" {
		entry.UserAgent = null.StringFrom(meta.UserAgent)
	}

	return u.repo.Create(ctx, entry)
}

// List returns a page of the audit trail, newest first
func (u *AuditUsecase) List(ctx context.Context, page, limit int) ([]*entities.AuditLog, utils.PaginationMeta, error) {
	p := utils.GetPaginationParams(page, limit)
	items, total, err := u.repo.List(ctx, p.Limit, p.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return items, utils.CalculateMeta(total, p.Page, p.Limit), nil
}

func toNullJSON(v interface{}) (null.JSON, error) {
	if v == nil {
		return null.JSON{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return null.JSON{}, err
	}
	if string(raw) == "null" {
		return null.JSON{}, nil
	}
	return null.JSONFrom(raw), nil
}
