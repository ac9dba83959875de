package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/interfaces/http/middleware"
	"solbol.backend/internal/interfaces/http/response"
	"solbol.backend/pkg/utils"
)

// AdminService is the part of the admin usecase the handler needs
type AdminService interface {
	Stats(ctx context.Context) (*entities.AdminStats, error)
	UsersSummary(ctx context.Context) (*entities.UsersSummary, error)
	ApprovedUsers(ctx context.Context) ([]*entities.ApprovedUser, error)
	CheckUser(ctx context.Context, email string) (*entities.CheckUserResult, error)
	GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error)
	UserOrders(ctx context.Context, id uuid.UUID) ([]*entities.Order, error)
	SetUserStatus(ctx context.Context, adminID, userID uuid.UUID, input *entities.SetUserStatusInput) (*entities.User, error)
	AuditLogs(ctx context.Context, page, limit int) ([]*entities.AuditLog, utils.PaginationMeta, error)
}

// AdminHandler serves the admin dashboard
type AdminHandler struct {
	adminUsecase AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminUsecase AdminService) *AdminHandler {
	return &AdminHandler{adminUsecase: adminUsecase}
}

// Stats returns the dashboard counters
// GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.adminUsecase.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// UsersSummary returns user counts and recent approvals
// GET /api/admin/users/summary
func (h *AdminHandler) UsersSummary(c *gin.Context) {
	summary, err := h.adminUsecase.UsersSummary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// ApprovedUsers lists active clients with their order activity
// GET /api/admin/approved-users
func (h *AdminHandler) ApprovedUsers(c *gin.Context) {
	users, err := h.adminUsecase.ApprovedUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// CheckUser looks a profile up by email
// GET /api/admin/check-user?email=
func (h *AdminHandler) CheckUser(c *gin.Context) {
	result, err := h.adminUsecase.CheckUser(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GetUser returns one profile
// GET /api/admin/users/:userId
func (h *AdminHandler) GetUser(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	user, err := h.adminUsecase.GetUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// UserOrders lists one client's orders
// GET /api/admin/users/:userId/orders
func (h *AdminHandler) UserOrders(c *gin.Context) {
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	orders, err := h.adminUsecase.UserOrders(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, orders)
}

// SetUserStatus suspends or reactivates an account
// PUT /api/admin/users/:userId/status
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}
	userID, ok := uuidParam(c, "userId")
	if !ok {
		return
	}

	var input entities.SetUserStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.adminUsecase.SetUserStatus(c.Request.Context(), adminID, userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// AuditLogs pages through the audit trail, newest first
// GET /api/admin/audit-logs?page=&limit=
func (h *AdminHandler) AuditLogs(c *gin.Context) {
	logs, meta, err := h.adminUsecase.AuditLogs(c.Request.Context(), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": logs, "meta": meta})
}
