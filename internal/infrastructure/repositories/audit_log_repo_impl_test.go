package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"solbol.backend/internal/domain/entities"
)

func TestAuditLogRepository(t *testing.T) {
	db := newTestDB(t)
	createAuditLogTable(t, db)
	repo := NewAuditLogRepository(db)
	ctx := context.Background()
	actor := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &entities.AuditLog{
			ID:        uuid.New(),
			UserID:    null.StringFrom(actor.String()),
			Action:    entities.AuditOrderStatus,
			TableName: entities.TableOrders,
			RecordID:  uuid.NewString(),
			OldValues: null.JSONFrom([]byte(`{"status":"pending"}`)),
			NewValues: null.JSONFrom([]byte(`{"status":"cancelled"}`)),
			IPAddress: null.StringFrom("10.0.0.1"),
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}))
	}

	page, total, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	require.Equal(t, actor.String(), page[0].UserID.String)
	require.JSONEq(t, `{"status":"cancelled"}`, string(page[0].NewValues.JSON))
	require.False(t, page[0].UserAgent.Valid)

	require.Error(t, repo.Create(ctx, &entities.AuditLog{ID: uuid.New(), UserID: null.StringFrom("not-a-uuid")}))
}
