package handlers

import (
	"context"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/interfaces/http/middleware"
	"solbol.backend/internal/interfaces/http/response"
	"solbol.backend/internal/usecases"
	"solbol.backend/pkg/utils"
)

// OrderService is the part of the order usecase the handler needs
type OrderService interface {
	Create(ctx context.Context, clientID uuid.UUID, input *entities.CreateOrderInput) (*entities.CreateOrderResponse, error)
	UploadPaymentProof(ctx context.Context, clientID, orderID uuid.UUID, file *multipart.FileHeader) (*entities.Order, error)
	UpdateStatus(ctx context.Context, adminID, orderID uuid.UUID, input *entities.UpdateOrderStatusInput) (*entities.Order, error)
	Cancel(ctx context.Context, clientID, orderID uuid.UUID) (*entities.Order, error)
	Get(ctx context.Context, viewer *entities.User, orderID uuid.UUID) (*entities.Order, error)
	ListForClient(ctx context.Context, clientID uuid.UUID, query usecases.OrderQuery) ([]*entities.Order, utils.PaginationMeta, error)
	ListAll(ctx context.Context, query usecases.OrderQuery) ([]*entities.Order, utils.PaginationMeta, error)
	ClientStats(ctx context.Context, clientID uuid.UUID) (*entities.OrderStats, error)
}

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderUsecase OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderUsecase OrderService) *OrderHandler {
	return &OrderHandler{orderUsecase: orderUsecase}
}

// CreateOrder places an order at the quoted rate
// POST /api/orders/create
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	var input entities.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	result, err := h.orderUsecase.Create(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// UploadPaymentProof attaches the client's transfer receipt
// POST /api/orders/upload-payment (multipart: file, orderId)
func (h *OrderHandler) UploadPaymentProof(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	orderID, err := uuid.Parse(c.PostForm("orderId"))
	if err != nil {
		response.Error(c, domainerrors.BadRequest("orderId is required"))
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, domainerrors.BadRequest("file is required"))
		return
	}

	order, err := h.orderUsecase.UploadPaymentProof(c.Request.Context(), userID, orderID, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true, "order": order})
}

// ListOrders lists the caller's orders
// GET /api/orders?status=&search=&page=&limit=
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	orders, meta, err := h.orderUsecase.ListForClient(c.Request.Context(), userID, orderQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": orders, "meta": meta})
}

// Stats summarises the caller's orders
// GET /api/orders/stats
func (h *OrderHandler) Stats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	stats, err := h.orderUsecase.ClientStats(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

// GetOrder returns one order visible to the caller
// GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderUsecase.Get(c.Request.Context(), user, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

// CancelOrder cancels one of the caller's pending orders
// POST /api/orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderUsecase.Cancel(c.Request.Context(), userID, orderID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

// AdminListOrders lists every order with its client
// GET /api/admin/orders?status=&search=&page=&limit=
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	orders, meta, err := h.orderUsecase.ListAll(c.Request.Context(), orderQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": orders, "meta": meta})
}

// AdminUpdateStatus moves an order through its lifecycle
// PUT /api/admin/orders/:id/status
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}
	orderID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	var input entities.UpdateOrderStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	order, err := h.orderUsecase.UpdateStatus(c.Request.Context(), adminID, orderID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

func orderQuery(c *gin.Context) usecases.OrderQuery {
	return usecases.OrderQuery{
		Status: entities.OrderStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	}
}
