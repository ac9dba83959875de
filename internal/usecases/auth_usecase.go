package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"solbol.backend/internal/domain/entities"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/internal/infrastructure/identity"
	"solbol.backend/pkg/crypto"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/redis"
)

// SessionStore keeps provider tokens behind an opaque session id
type SessionStore interface {
	CreateSession(ctx context.Context, sessionID string, data *redis.SessionData, expiration time.Duration) error
	GetSession(ctx context.Context, sessionID string) (*redis.SessionData, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// AuthUsecase handles authentication business logic
type AuthUsecase struct {
	userRepo   repositories.UserRepository
	provider   identity.Provider
	sessions   SessionStore
	sessionTTL time.Duration
	siteURL    string
}

// NewAuthUsecase creates a new auth usecase. sessions may be nil, in which
// case login always returns raw tokens.
func NewAuthUsecase(
	userRepo repositories.UserRepository,
	provider identity.Provider,
	sessions SessionStore,
	sessionTTL time.Duration,
	siteURL string,
) *AuthUsecase {
	return &AuthUsecase{
		userRepo:   userRepo,
		provider:   provider,
		sessions:   sessions,
		sessionTTL: sessionTTL,
		siteURL:    strings.TrimRight(siteURL, "/"),
	}
}

// SignUp creates the provider account and the client profile. The provider
// account is removed again when the profile cannot be written.
func (u *AuthUsecase) SignUp(ctx context.Context, input *entities.SignUpInput) (*entities.AuthResponse, error) {
	if !crypto.PasswordMeetsPolicy(input.Password) {
		return nil, domainerrors.BadRequest(fmt.Sprintf("password must be %d to %d bytes long", crypto.MinPasswordLength, crypto.MaxPasswordBytes))
	}
	email := normalizeEmail(input.Email)
	metadata := map[string]string{"full_name": input.FullName}
	if input.Phone != "" {
		metadata["phone"] = input.Phone
	}

	session, err := u.provider.SignUp(ctx, email, input.Password, metadata)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		ID:       session.UserID,
		Email:    email,
		Role:     entities.UserRoleClient,
		Status:   entities.UserStatusPendingKYC,
		FullName: null.StringFrom(strings.TrimSpace(input.FullName)),
	}
	if input.Phone != "" {
		user.Phone = null.StringFrom(input.Phone)
	}
	if input.Country != "" {
		user.Country = null.StringFrom(input.Country)
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		if delErr := u.provider.DeleteUser(ctx, session.UserID); delErr != nil {
			logger.Error(ctx, "Failed to remove provider account after profile error",
				zap.String("user_id", session.UserID.String()),
				zap.Error(delErr),
			)
		}
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user profile: %w", err)
	}

	logger.Info(ctx, "User signed up", zap.String("user_id", user.ID.String()))

	resp := &entities.AuthResponse{User: user, Redirect: user.HomePath()}
	if session.HasTokens() {
		resp.AccessToken = session.AccessToken
		resp.RefreshToken = session.RefreshToken
		resp.ExpiresIn = session.ExpiresIn
	}
	return resp, nil
}

// Login authenticates a user. Suspended accounts are signed out again and
// rejected.
func (u *AuthUsecase) Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResponse, error) {
	session, err := u.provider.SignIn(ctx, normalizeEmail(input.Email), input.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			u.signOutQuietly(ctx, session.AccessToken)
			return nil, domainerrors.Unauthorized("user profile not found")
		}
		return nil, err
	}

	if user.Status == entities.UserStatusSuspended {
		u.signOutQuietly(ctx, session.AccessToken)
		return nil, domainerrors.ErrAccountSuspended
	}

	resp := &entities.AuthResponse{User: user, Redirect: user.HomePath()}
	if input.UseSession && u.sessions != nil {
		sessionID, err := crypto.GenerateSessionID()
		if err != nil {
			return nil, err
		}
		data := &redis.SessionData{
			UserID:       user.ID.String(),
			AccessToken:  session.AccessToken,
			RefreshToken: session.RefreshToken,
		}
		if err := u.sessions.CreateSession(ctx, sessionID, data, u.sessionTTL); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		resp.SessionID = sessionID
		return resp, nil
	}

	resp.AccessToken = session.AccessToken
	resp.RefreshToken = session.RefreshToken
	resp.ExpiresIn = session.ExpiresIn
	return resp, nil
}

// Refresh exchanges a refresh token for a new token pair
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (*entities.AuthResponse, error) {
	session, err := u.provider.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return &entities.AuthResponse{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}, nil
}

// RefreshSession rotates the tokens stored behind a session id
func (u *AuthUsecase) RefreshSession(ctx context.Context, sessionID string) (*entities.AuthResponse, error) {
	if u.sessions == nil || sessionID == "" {
		return nil, domainerrors.ErrUnauthorized
	}

	data, err := u.sessions.GetSession(ctx, sessionID)
	if err != nil {
		if redis.IsNil(err) {
			return nil, domainerrors.ErrUnauthorized
		}
		return nil, err
	}

	session, err := u.provider.Refresh(ctx, data.RefreshToken)
	if err != nil {
		return nil, err
	}

	data.AccessToken = session.AccessToken
	data.RefreshToken = session.RefreshToken
	if err := u.sessions.CreateSession(ctx, sessionID, data, u.sessionTTL); err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return &entities.AuthResponse{SessionID: sessionID}, nil
}

// Logout revokes the provider session and forgets the server-side session.
func (u *AuthUsecase) Logout(ctx context.Context, accessToken, sessionID string) error {
	if sessionID != "" && u.sessions != nil {
		if accessToken == "" {
			if data, err := u.sessions.GetSession(ctx, sessionID); err == nil {
				accessToken = data.AccessToken
			}
		}
		if err := u.sessions.DeleteSession(ctx, sessionID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	}

	if accessToken != "" {
		u.signOutQuietly(ctx, accessToken)
	}
	return nil
}

// ResetPassword sends a reset email. Unknown addresses are not reported so
// the endpoint cannot be used to enumerate accounts.
func (u *AuthUsecase) ResetPassword(ctx context.Context, email string) error {
	err := u.provider.SendPasswordReset(ctx, normalizeEmail(email), u.siteURL+"/auth/reset-password")
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return err
	}
	return nil
}

// Me returns the caller's profile
func (u *AuthUsecase) Me(ctx context.Context, userID uuid.UUID) (*entities.User, error) {
	return u.userRepo.GetByID(ctx, userID)
}

// UpdateProfile changes the editable profile fields
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID uuid.UUID, input *entities.UpdateProfileInput) (*entities.User, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		user.FullName = null.StringFrom(strings.TrimSpace(*input.FullName))
	}
	if input.Phone != nil {
		user.Phone = null.NewString(*input.Phone, *input.Phone != "")
	}
	if input.Country != nil {
		user.Country = null.NewString(*input.Country, *input.Country != "")
	}

	if err := u.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *AuthUsecase) signOutQuietly(ctx context.Context, accessToken string) {
	if accessToken == "" {
		return
	}
	if err := u.provider.SignOut(ctx, accessToken); err != nil {
		logger.Warn(ctx, "Failed to sign out provider session", zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
