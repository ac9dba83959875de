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
)

// KYCService is the part of the KYC usecase the handler needs
type KYCService interface {
	Upload(ctx context.Context, userID uuid.UUID, docType entities.DocumentType, file *multipart.FileHeader) (*entities.KYCDocument, error)
	Status(ctx context.Context, userID uuid.UUID) (*entities.KYCStatusView, error)
	Pending(ctx context.Context) ([]*entities.PendingKYCUser, error)
	Approve(ctx context.Context, adminID, userID uuid.UUID) (*entities.User, error)
	Reject(ctx context.Context, adminID, userID uuid.UUID, reason string) (*entities.User, error)
}

// KYCHandler handles identity verification endpoints
type KYCHandler struct {
	kycUsecase KYCService
}

// NewKYCHandler creates a new KYC handler
func NewKYCHandler(kycUsecase KYCService) *KYCHandler {
	return &KYCHandler{kycUsecase: kycUsecase}
}

// Upload stores one identity document for the caller. The document
// always belongs to the authenticated user.
// POST /api/upload/kyc (multipart: file, documentType)
func (h *KYCHandler) Upload(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	docType := entities.DocumentType(c.PostForm("documentType"))
	if !docType.Valid() {
		response.Error(c, domainerrors.BadRequest("documentType must be one of dni_front, dni_back, selfie"))
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, domainerrors.BadRequest("file is required"))
		return
	}

	doc, err := h.kycUsecase.Upload(c.Request.Context(), userID, docType, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"url": doc.FileURL, "document": doc})
}

// Status reports the caller's verification progress
// GET /api/kyc/status
func (h *KYCHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	status, err := h.kycUsecase.Status(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// Pending lists users awaiting review
// GET /api/admin/kyc/pending
func (h *KYCHandler) Pending(c *gin.Context) {
	users, err := h.kycUsecase.Pending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, users)
}

// Approve activates a pending user
// POST /api/admin/kyc/approve
func (h *KYCHandler) Approve(c *gin.Context) {
	h.decide(c, func(ctx context.Context, adminID, userID uuid.UUID, _ string) (*entities.User, error) {
		return h.kycUsecase.Approve(ctx, adminID, userID)
	})
}

// Reject suspends a pending user
// POST /api/admin/kyc/reject
func (h *KYCHandler) Reject(c *gin.Context) {
	h.decide(c, h.kycUsecase.Reject)
}

func (h *KYCHandler) decide(c *gin.Context, apply func(ctx context.Context, adminID, userID uuid.UUID, reason string) (*entities.User, error)) {
	adminID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	var input entities.KYCDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}
	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		response.Error(c, domainerrors.BadRequest("invalid userId"))
		return
	}

	user, err := apply(c.Request.Context(), adminID, userID, input.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"success": true, "user": user})
}
