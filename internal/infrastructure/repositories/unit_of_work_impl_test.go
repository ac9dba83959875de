package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"solbol.backend/internal/domain/entities"
)

func TestUnitOfWork_DoCommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	createNotificationTable(t, db)
	u := NewUnitOfWork(db)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	create := func(ctx context.Context) error {
		return repo.Create(ctx, &entities.Notification{ID: uuid.New(), UserID: userID, Title: "t", Message: "m", Type: entities.NotificationInfo})
	}

	require.NoError(t, u.Do(context.Background(), create))

	err := u.Do(context.Background(), func(ctx context.Context) error {
		if err := create(ctx); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "second insert must be rolled back")
}

func TestUnitOfWork_NestedDoJoinsOuter(t *testing.T) {
	db := newTestDB(t)
	createNotificationTable(t, db)
	u := NewUnitOfWork(db)
	repo := NewNotificationRepository(db)
	userID := uuid.New()

	err := u.Do(context.Background(), func(ctx context.Context) error {
		require.True(t, inTx(ctx))
		outer := GetDB(ctx, db)
		if err := u.Do(ctx, func(inner context.Context) error {
			require.Same(t, outer, GetDB(inner, db))
			return repo.Create(inner, &entities.Notification{ID: uuid.New(), UserID: userID, Title: "t", Message: "m", Type: entities.NotificationInfo})
		}); err != nil {
			return err
		}
		return errors.New("outer fails")
	})
	require.Error(t, err)

	count, err := repo.CountUnread(context.Background(), userID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestUnitOfWork_DoBeginFailure(t *testing.T) {
	db := newTestDB(t)
	u := NewUnitOfWork(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = u.Do(context.Background(), func(ctx context.Context) error { return nil })
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to begin transaction")
}

func TestGetDB_Fallback(t *testing.T) {
	db := newTestDB(t)
	require.False(t, inTx(context.Background()))
	require.NotNil(t, GetDB(context.Background(), db))
}
