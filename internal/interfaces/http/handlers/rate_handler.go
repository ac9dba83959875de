package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
	"solbol.backend/internal/interfaces/http/middleware"
	"solbol.backend/internal/interfaces/http/response"
)

// RateService is the part of the rate usecase the handler needs
type RateService interface {
	Current(ctx context.Context) *entities.CurrentRate
	History(ctx context.Context) ([]*entities.ExchangeRate, error)
	Publish(ctx context.Context, adminID uuid.UUID, input *entities.PublishRateInput) (*entities.ExchangeRate, error)
}

// RateHandler serves exchange rates
type RateHandler struct {
	rateUsecase RateService
}

// NewRateHandler creates a new rate handler
func NewRateHandler(rateUsecase RateService) *RateHandler {
	return &RateHandler{rateUsecase: rateUsecase}
}

// Current returns the active rate, or the default when none is published
// GET /api/rates/current
func (h *RateHandler) Current(c *gin.Context) {
	response.Success(c, http.StatusOK, h.rateUsecase.Current(c.Request.Context()))
}

// History returns the most recent rates, newest first
// GET /api/rates, GET /api/admin/rates
func (h *RateHandler) History(c *gin.Context) {
	rates, err := h.rateUsecase.History(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, rates)
}

// Publish activates a new rate
// POST /api/admin/rates
func (h *RateHandler) Publish(c *gin.Context) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	var input entities.PublishRateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	rate, err := h.rateUsecase.Publish(c.Request.Context(), adminID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, rate)
}
