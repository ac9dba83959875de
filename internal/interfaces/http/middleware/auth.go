package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/interfaces/http/response"
	"solbol.backend/pkg/jwt"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/redis"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// SessionHeader carries an opaque session id issued at login
	SessionHeader = "X-Session-ID"
	// SessionCookie is the cookie alternative to SessionHeader
	SessionCookie = "session_id"
	// TokenCookie holds a raw access token set by the web app
	TokenCookie = "token"

	// UserIDKey is the context key for user ID
	UserIDKey = "userId"
	// UserEmailKey is the context key for user email
	UserEmailKey = "userEmail"
	// AccessTokenKey is the context key for the verified access token
	AccessTokenKey = "accessToken"
	// SessionIDKey is the context key for the session id, when one was used
	SessionIDKey = "sessionId"
	// CurrentUserKey is the context key for the loaded profile
	CurrentUserKey = "currentUser"
)

// TokenValidator verifies access tokens.
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// SessionReader resolves session ids to the tokens stored at login.
type SessionReader interface {
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
}

// ProfileLoader reads the caller's profile row.
type ProfileLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
}

// AuthMiddleware verifies the caller's access token. The token comes from
// a Redis session (X-Session-ID header or session_id cookie), else the
// Authorization header, else the token cookie. sessions may be nil.
func AuthMiddleware(validator TokenValidator, sessions SessionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, sessionID, err := extractToken(c, sessions)
		if err != nil {
			logger.Warn(ctx, "Authentication failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			response.Abort(c, domainerrors.Unauthorized("authentication required"))
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			logger.Warn(ctx, "Token rejected", zap.String("path", c.Request.URL.Path), zap.Error(err))
			if errors.Is(err, jwt.ErrExpiredToken) {
				response.Abort(c, domainerrors.Unauthorized("token has expired"))
				return
			}
			response.Abort(c, domainerrors.Unauthorized("invalid token"))
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.Abort(c, domainerrors.Unauthorized("invalid token"))
			return
		}

		c.Set(UserIDKey, userID)
		c.Set(UserEmailKey, claims.Email)
		c.Set(AccessTokenKey, token)
		if sessionID != "" {
			c.Set(SessionIDKey, sessionID)
		}
		c.Request = c.Request.WithContext(context.WithValue(ctx, logger.UserIDKey, userID.String()))

		c.Next()
	}
}

var errNoCredentials = errors.New("no credentials presented")

func extractToken(c *gin.Context, sessions SessionReader) (token, sessionID string, err error) {
	sessionID = strings.TrimSpace(c.GetHeader(SessionHeader))
	if sessionID == "" {
		sessionID, _ = c.Cookie(SessionCookie)
	}
	if sessionID != "" && sessions != nil {
		session, err := sessions.GetSession(c.Request.Context(), sessionID)
		if err != nil {
			return "", "", err
		}
		return session.AccessToken, sessionID, nil
	}

	if header := c.GetHeader(AuthorizationHeader); header != "" {
		if !strings.HasPrefix(header, BearerPrefix) {
			return "", "", errors.New("invalid authorization format")
		}
		return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix)), "", nil
	}

	if cookie, _ := c.Cookie(TokenCookie); cookie != "" {
		return cookie, "", nil
	}
	return "", "", errNoCredentials
}

// LoadProfile reads the caller's profile on every request so role and
// status changes take effect immediately.
func LoadProfile(users ProfileLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			response.Abort(c, domainerrors.Unauthorized("authentication required"))
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				response.Abort(c, domainerrors.Unauthorized("profile not found"))
				return
			}
			response.Abort(c, err)
			return
		}
		if user.Status == entities.UserStatusSuspended {
			response.Abort(c, domainerrors.ErrAccountSuspended)
			return
		}

		c.Set(CurrentUserKey, user)
		c.Next()
	}
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := userID.(uuid.UUID)
	return id, ok
}

// GetUserEmail gets the user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(UserEmailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}

// GetAccessToken returns the verified access token.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(AccessTokenKey)
}

// GetSessionID returns the session id the request authenticated with.
func GetSessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

// CurrentUser returns the profile set by LoadProfile.
func CurrentUser(c *gin.Context) (*entities.User, bool) {
	v, exists := c.Get(CurrentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*entities.User)
	return user, ok && user != nil
}

// RequireRole creates a middleware that requires one of roles on the
// loaded profile.
func RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			response.Abort(c, domainerrors.Unauthorized("authentication required"))
			return
		}

		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}

		response.Abort(c, domainerrors.Forbidden("insufficient permissions"))
	}
}

// RequireAdmin creates a middleware that requires admin role
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(entities.UserRoleAdmin)
}
