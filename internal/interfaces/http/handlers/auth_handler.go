package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/interfaces/http/middleware"
	"solbol.backend/internal/interfaces/http/response"
)

// AuthService is the part of the auth usecase the handler needs
type AuthService interface {
	SignUp(ctx context.Context, input *entities.SignUpInput) (*entities.AuthResponse, error)
	Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*entities.AuthResponse, error)
	RefreshSession(ctx context.Context, sessionID string) (*entities.AuthResponse, error)
	Logout(ctx context.Context, accessToken, sessionID string) error
	ResetPassword(ctx context.Context, email string) error
	Me(ctx context.Context, userID uuid.UUID) (*entities.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input *entities.UpdateProfileInput) (*entities.User, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authUsecase   AuthService
	sessionTTL    time.Duration
	secureCookies bool
}

// NewAuthHandler creates a new auth handler. secureCookies marks the
// session cookie Secure and should be on outside development.
func NewAuthHandler(authUsecase AuthService, sessionTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		authUsecase:   authUsecase,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

// SignUp creates an account and its client profile
// POST /api/auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input entities.SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	authResponse, err := h.authUsecase.SignUp(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, authResponse.SessionID)
	response.Success(c, http.StatusCreated, authResponse)
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	authResponse, err := h.authUsecase.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, authResponse.SessionID)
	response.Success(c, http.StatusOK, authResponse)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token, or renews a server-side session
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	if sessionID := sessionIDFrom(c); sessionID != "" {
		authResponse, err := h.authUsecase.RefreshSession(ctx, sessionID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Success(c, http.StatusOK, authResponse)
		return
	}

	var input refreshRequest
	if err := c.ShouldBindJSON(&input); err != nil || input.RefreshToken == "" {
		response.Error(c, domainerrors.BadRequest("refresh_token is required"))
		return
	}

	authResponse, err := h.authUsecase.Refresh(ctx, input.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, authResponse)
}

// ResetPassword sends a password reset email
// POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input entities.ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	if err := h.authUsecase.ResetPassword(c.Request.Context(), input.Email); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "If the address is registered, a reset link is on its way.",
	})
}

// Logout ends the caller's session
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.authUsecase.Logout(c.Request.Context(), middleware.GetAccessToken(c), middleware.GetSessionID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookies, true)
	response.Success(c, http.StatusOK, gin.H{"success": true})
}

// Me returns the caller's profile
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	user, err := h.authUsecase.Me(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user, "redirect": user.HomePath()})
}

// UpdateMe edits the caller's profile
// PUT /api/auth/me
func (h *AuthHandler) UpdateMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, errUnauthenticated)
		return
	}

	var input entities.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.BindError(c, err)
		return
	}

	user, err := h.authUsecase.UpdateProfile(c.Request.Context(), userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, sessionID, int(h.sessionTTL/time.Second), "/", "", h.secureCookies, true)
}

func sessionIDFrom(c *gin.Context) string {
	if id := c.GetHeader(middleware.SessionHeader); id != "" {
		return id
	}
	id, _ := c.Cookie(middleware.SessionCookie)
	return id
}
