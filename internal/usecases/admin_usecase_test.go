package usecases_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/usecases"
)

func (f *fixture) adminUsecase() *usecases.AdminUsecase {
	return usecases.NewAdminUsecase(f.users, f.orders, f.rateUsecase(), f.uow, f.audit, f.notifications, f.events)
}

func TestAdminUsecase_Stats(t *testing.T) {
	f := newFixture()
	uc := f.adminUsecase()
	rate := activeRate()

	f.users.On("Count", mock.Anything).Return(int64(12), nil).Once()
	f.users.On("CountByStatus", mock.Anything, entities.UserRoleClient).Return(entities.UserCounts{Total: 10, PendingKYC: 4}, nil).Once()
	f.orders.On("CountByStatus", mock.Anything, (*uuid.UUID)(nil), []entities.OrderStatus(nil)).Return(int64(30), nil).Once()
	f.orders.On("CountByStatus", mock.Anything, (*uuid.UUID)(nil), entities.OpenOrderStatuses).Return(int64(7), nil).Once()
	f.orders.On("CountByStatus", mock.Anything, (*uuid.UUID)(nil), []entities.OrderStatus{entities.OrderStatusCompleted}).Return(int64(20), nil).Once()
	f.rates.On("GetActive", mock.Anything).Return(rate, nil).Once()

	stats, err := uc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.TotalUsers)
	assert.Equal(t, int64(4), stats.PendingKYC)
	assert.Equal(t, int64(30), stats.TotalOrders)
	assert.Equal(t, int64(7), stats.PendingOrders)
	assert.Equal(t, int64(20), stats.CompletedOrders)
	assert.Equal(t, rate, stats.ActiveRate)
}

func TestAdminUsecase_Stats_NoRate(t *testing.T) {
	f := newFixture()
	uc := f.adminUsecase()

	f.users.On("Count", mock.Anything).Return(int64(0), nil).Once()
	f.users.On("CountByStatus", mock.Anything, entities.UserRoleClient).Return(entities.UserCounts{}, nil).Once()
	f.orders.On("CountByStatus", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
	f.rates.On("GetActive", mock.Anything).Return(nil, domainerrors.ErrNotFound).Once()

	stats, err := uc.Stats(context.Background())
	require.NoError(t, err)
	assert.Nil(t, stats.ActiveRate)
}

func TestAdminUsecase_UsersSummary(t *testing.T) {
	f := newFixture()
	uc := f.adminUsecase()
	counts := entities.UserCounts{Total: 3, Active: 1, PendingKYC: 1, Suspended: 1}

	f.users.On("CountByStatus", mock.Anything, entities.UserRoleClient).Return(counts, nil).Once()
	f.users.On("ListApprovedSince", mock.Anything, mock.MatchedBy(func(since time.Time) bool {
		return time.Since(since) > 6*24*time.Hour && time.Since(since) < 8*24*time.Hour
	}), 5).Return(nil, nil).Once()

	summary, err := uc.UsersSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counts, summary.Counts)
	assert.NotNil(t, summary.RecentApprovals)
}

func TestAdminUsecase_ApprovedUsers(t *testing.T) {
	f := newFixture()
	uc := f.adminUsecase()
	busy := client(entities.UserStatusActive)
	idle := client(entities.UserStatusActive)
	last := time.Now().Add(-time.Hour)

	f.users.On("ListByStatus", mock.Anything, entities.UserRoleClient, entities.UserStatusActive).
		Return([]*entities.User{busy, idle}, nil).Once()
	f.orders.On("ActivityByClient", mock.Anything, []uuid.UUID{busy.ID, idle.ID}).
		Return(map[uuid.UUID]entities.ClientOrderActivity{
			busy.ID: {ClientID: busy.ID, TotalOrders: 4, LastOrderDate: &last},
		}, nil).Once()

	users, err := uc.ApprovedUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, int64(4), users[0].TotalOrders)
	assert.Equal(t, &last, users[0].LastOrderDate)
	assert.Zero(t, users[1].TotalOrders)
	assert.Nil(t, users[1].LastOrderDate)
}

func TestAdminUsecase_CheckUser(t *testing.T) {
	f := newFixture()
	uc := f.adminUsecase()
	known := client(entities.UserStatusActive)

	f.users.On("GetByEmail", mock.Anything, "cliente@mail.com").Return(known, nil).Once()
	f.users.On("GetByEmail", mock.Anything, "nadie@mail.com").Return(nil, domainerrors.ErrNotFound).Once()

	res, err := uc.CheckUser(context.Background(), "  Cliente@Mail.com ")
	require.NoError(t, err)
	assert.True(t, res.Exists)
	assert.Equal(t, known.ID, res.User.ID)

	res, err = uc.CheckUser(context.Background(), "nadie@mail.com")
	require.NoError(t, err)
	assert.False(t, res.Exists)

	_, err = uc.CheckUser(context.Background(), "")
	assert.Error(t, err)
}

func TestAdminUsecase_UserOrders(t *testing.T) {
	f := newFixture()
	uc := f.adminUsecase()
	user := client(entities.UserStatusActive)

	f.users.On("GetByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.orders.On("List", mock.Anything, entities.OrderFilter{ClientID: &user.ID}).
		Return([]*entities.Order{orderFor(user.ID, entities.OrderStatusPending)}, int64(1), nil).Once()

	orders, err := uc.UserOrders(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	missing := uuid.New()
	f.users.On("GetByID", mock.Anything, missing).Return(nil, domainerrors.ErrNotFound).Once()
	_, err = uc.UserOrders(context.Background(), missing)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAdminUsecase_SetUserStatus(t *testing.T) {
	t.Run("suspend", func(t *testing.T) {
		f := newFixture()
		uc := f.adminUsecase()
		user := client(entities.UserStatusActive)
		user.ApprovedAt = null.TimeFrom(time.Now().Add(-time.Hour))

		f.users.On("GetByIDForUpdate", mock.Anything, user.ID).Return(user, nil).Once()
		f.users.On("UpdateStatus", mock.Anything, user.ID, entities.UserStatusSuspended, (*time.Time)(nil)).Return(nil).Once()

		updated, err := uc.SetUserStatus(context.Background(), f.adminID, user.ID, &entities.SetUserStatusInput{
			Status: entities.UserStatusSuspended,
			Reason: "fraude",
		})
		require.NoError(t, err)
		assert.Equal(t, entities.UserStatusSuspended, updated.Status)
		assert.Len(t, f.events.byTable(entities.TableUsers), 1)
		assert.Equal(t, []string{entities.AuditUserStatus}, f.auditActions())
		assert.Equal(t, []uuid.UUID{user.ID}, f.notifiedUsers())
	})

	t.Run("reactivate never approved user sets approved_at", func(t *testing.T) {
		f := newFixture()
		uc := f.adminUsecase()
		user := client(entities.UserStatusSuspended)

		f.users.On("GetByIDForUpdate", mock.Anything, user.ID).Return(user, nil).Once()
		f.users.On("UpdateStatus", mock.Anything, user.ID, entities.UserStatusActive, mock.AnythingOfType("*time.Time")).Return(nil).Once()

		updated, err := uc.SetUserStatus(context.Background(), f.adminID, user.ID, &entities.SetUserStatusInput{Status: entities.UserStatusActive})
		require.NoError(t, err)
		assert.True(t, updated.ApprovedAt.Valid)
	})

	t.Run("unchanged status is a no-op", func(t *testing.T) {
		f := newFixture()
		uc := f.adminUsecase()
		user := client(entities.UserStatusSuspended)
		f.users.On("GetByIDForUpdate", mock.Anything, user.ID).Return(user, nil).Once()

		_, err := uc.SetUserStatus(context.Background(), f.adminID, user.ID, &entities.SetUserStatusInput{Status: entities.UserStatusSuspended})
		require.NoError(t, err)
		f.users.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.events.all())
	})

	t.Run("rejects own account and pending_kyc", func(t *testing.T) {
		f := newFixture()
		uc := f.adminUsecase()

		_, err := uc.SetUserStatus(context.Background(), f.adminID, f.adminID, &entities.SetUserStatusInput{Status: entities.UserStatusSuspended})
		assert.Error(t, err)
		_, err = uc.SetUserStatus(context.Background(), f.adminID, uuid.New(), &entities.SetUserStatusInput{Status: entities.UserStatusPendingKYC})
		assert.Error(t, err)
	})
}

func TestAdminUsecase_AuditLogs(t *testing.T) {
	f := newFixture()
	uc := f.adminUsecase()
	f.audits.On("List", mock.Anything, 20, 20).Return([]*entities.AuditLog{{Action: entities.AuditOrderStatus}}, int64(41), nil).Once()

	logs, meta, err := uc.AuditLogs(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(41), meta.TotalCount)
}
