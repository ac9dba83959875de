package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/pkg/utils"
)

type adminServiceStub struct {
	statsFn         func(ctx context.Context) (*entities.AdminStats, error)
	usersSummaryFn  func(ctx context.Context) (*entities.UsersSummary, error)
	approvedUsersFn func(ctx context.Context) ([]*entities.ApprovedUser, error)
	checkUserFn     func(ctx context.Context, email string) (*entities.CheckUserResult, error)
	getUserFn       func(ctx context.Context, id uuid.UUID) (*entities.User, error)
	userOrdersFn    func(ctx context.Context, id uuid.UUID) ([]*entities.Order, error)
	setStatusFn     func(ctx context.Context, adminID, userID uuid.UUID, input *entities.SetUserStatusInput) (*entities.User, error)
	auditLogsFn     func(ctx context.Context, page, limit int) ([]*entities.AuditLog, utils.PaginationMeta, error)
}

func (s adminServiceStub) Stats(ctx context.Context) (*entities.AdminStats, error) {
	return s.statsFn(ctx)
}
func (s adminServiceStub) UsersSummary(ctx context.Context) (*entities.UsersSummary, error) {
	return s.usersSummaryFn(ctx)
}
func (s adminServiceStub) ApprovedUsers(ctx context.Context) ([]*entities.ApprovedUser, error) {
	return s.approvedUsersFn(ctx)
}
func (s adminServiceStub) CheckUser(ctx context.Context, email string) (*entities.CheckUserResult, error) {
	return s.checkUserFn(ctx, email)
}
func (s adminServiceStub) GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return s.getUserFn(ctx, id)
}
func (s adminServiceStub) UserOrders(ctx context.Context, id uuid.UUID) ([]*entities.Order, error) {
	return s.userOrdersFn(ctx, id)
}
func (s adminServiceStub) SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, input *entities.SetUserStatusInput) (*entities.User, error) {
	return s.setStatusFn(ctx, adminID, userID, input)
}
func (s adminServiceStub) AuditLogs(ctx context.Context, page, limit int) ([]*entities.AuditLog, utils.PaginationMeta, error) {
	return s.auditLogsFn(ctx, page, limit)
}

func TestAdminHandler_Dashboard(t *testing.T) {
	lastOrder := time.Now().Add(-time.Hour)
	stub := adminServiceStub{
		statsFn: func(context.Context) (*entities.AdminStats, error) {
			return &entities.AdminStats{TotalUsers: 10, PendingKYC: 2, TotalOrders: 7, PendingOrders: 3, CompletedOrders: 4}, nil
		},
		usersSummaryFn: func(context.Context) (*entities.UsersSummary, error) {
			return &entities.UsersSummary{Counts: entities.UserCounts{Total: 10, Active: 7, PendingKYC: 2, Suspended: 1}, RecentApprovals: []*entities.User{}}, nil
		},
		approvedUsersFn: func(context.Context) ([]*entities.ApprovedUser, error) {
			return []*entities.ApprovedUser{{User: &entities.User{ID: uuid.New(), Email: "a@b.co"}, TotalOrders: 2, LastOrderDate: &lastOrder}}, nil
		},
	}
	h := NewAdminHandler(stub)
	r := newTestRouter(adminUser())
	r.GET("/admin/stats", h.Stats)
	r.GET("/admin/users/summary", h.UsersSummary)
	r.GET("/admin/approved-users", h.ApprovedUsers)

	w := doJSON(r, http.MethodGet, "/admin/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 2, body["pendingKYC"])
	assert.Nil(t, body["activeRate"])

	w = doJSON(r, http.MethodGet, "/admin/users/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"suspended":1`)

	w = doJSON(r, http.MethodGet, "/admin/approved-users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_orders":2`)
	assert.Contains(t, w.Body.String(), `"email":"a@b.co"`)
}

func TestAdminHandler_CheckUser(t *testing.T) {
	stub := adminServiceStub{
		checkUserFn: func(_ context.Context, email string) (*entities.CheckUserResult, error) {
			if email == "" {
				return nil, domainerrors.BadRequest("email is required")
			}
			return &entities.CheckUserResult{Exists: false}, nil
		},
	}
	r := newTestRouter(adminUser())
	r.GET("/admin/check-user", NewAdminHandler(stub).CheckUser)

	w := doJSON(r, http.MethodGet, "/admin/check-user?email=nadie@example.com", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeBody(t, w)["exists"])

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/admin/check-user", nil).Code)
}

func TestAdminHandler_Users(t *testing.T) {
	admin := adminUser()
	known := uuid.New()
	stub := adminServiceStub{
		getUserFn: func(_ context.Context, id uuid.UUID) (*entities.User, error) {
			if id != known {
				return nil, domainerrors.ErrNotFound
			}
			return &entities.User{ID: id}, nil
		},
		userOrdersFn: func(_ context.Context, id uuid.UUID) ([]*entities.Order, error) {
			return []*entities.Order{{ID: uuid.New(), ClientID: id}}, nil
		},
		setStatusFn: func(_ context.Context, adminID, userID uuid.UUID, input *entities.SetUserStatusInput) (*entities.User, error) {
			assert.Equal(t, admin.ID, adminID)
			if adminID == userID {
				return nil, domainerrors.Conflict("you cannot change your own status")
			}
			return &entities.User{ID: userID, Status: input.Status}, nil
		},
	}
	h := NewAdminHandler(stub)
	r := newTestRouter(admin)
	r.GET("/admin/users/:userId", h.GetUser)
	r.GET("/admin/users/:userId/orders", h.UserOrders)
	r.PUT("/admin/users/:userId/status", h.SetUserStatus)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/admin/users/"+known.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/admin/users/"+uuid.NewString(), nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/admin/users/abc", nil).Code)

	w := doJSON(r, http.MethodGet, "/admin/users/"+known.String()+"/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), known.String())

	w = doJSON(r, http.MethodPut, "/admin/users/"+known.String()+"/status", map[string]string{"status": "suspended", "reason": "fraude"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "suspended", decodeBody(t, w)["status"])

	w = doJSON(r, http.MethodPut, "/admin/users/"+known.String()+"/status", map[string]string{"status": "pending_kyc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPut, "/admin/users/"+admin.ID.String()+"/status", map[string]string{"status": "suspended"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminHandler_AuditLogs(t *testing.T) {
	stub := adminServiceStub{
		auditLogsFn: func(_ context.Context, page, limit int) ([]*entities.AuditLog, utils.PaginationMeta, error) {
			assert.Equal(t, 3, page)
			assert.Equal(t, 0, limit)
			return []*entities.AuditLog{{ID: uuid.New(), Action: "order.confirmed"}}, utils.CalculateMeta(41, 3, 20), nil
		},
	}
	r := newTestRouter(adminUser())
	r.GET("/admin/audit-logs", NewAdminHandler(stub).AuditLogs)

	w := doJSON(r, http.MethodGet, "/admin/audit-logs?page=3", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "order.confirmed")
	assert.EqualValues(t, 3, decodeBody(t, w)["meta"].(map[string]interface{})["total_pages"])
}
