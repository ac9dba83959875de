package usecases

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/pkg/logger"
)

// EventEmitter publishes committed row changes to live views.
type EventEmitter interface {
	Emit(ctx context.Context, events ...*entities.ChangeEvent)
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, ...*entities.ChangeEvent) {}

func emitterOrNoop(e EventEmitter) EventEmitter {
	if e == nil {
		return noopEmitter{}
	}
	return e
}

// changeEvent builds an event, logging instead of failing: the write it
// describes has already been committed.
func changeEvent(ctx context.Context, table string, typ entities.ChangeType, recordID uuid.UUID, owner *uuid.UUID, newRow, oldRow interface{}) *entities.ChangeEvent {
	ev, err := entities.NewChangeEvent(table, typ, recordID.String(), owner, newRow, oldRow)
	if err != nil {
		logger.Error(ctx, "Failed to build change event", zap.String("table", table), zap.Error(err))
		return nil
	}
	return ev
}

func ownerOf(id uuid.UUID) *uuid.UUID {
	return &id
}
