package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	domainerrors "solbol.backend/internal/domain/errors"
	"solbol.backend/internal/domain/repositories"
	"solbol.backend/pkg/crypto"
	"solbol.backend/pkg/jwt"
	"solbol.backend/pkg/logger"
	"solbol.backend/pkg/utils"
)

// providerRole is the role claim stamped on every token; application roles
// come from the profile row.
const providerRole = "authenticated"

// LocalProvider keeps bcrypt credentials in the application database and
// mints tokens itself. It backs development setups without a hosted
// identity service.
type LocalProvider struct {
	credentials repositories.CredentialRepository
	jwtService  *jwt.JWTService
}

// NewLocalProvider creates a LocalProvider
func NewLocalProvider(credentials repositories.CredentialRepository, jwtService *jwt.JWTService) *LocalProvider {
	return &LocalProvider{credentials: credentials, jwtService: jwtService}
}

func (p *LocalProvider) SignUp(ctx context.Context, email, password string, _ map[string]string) (*Session, error) {
	if _, _, err := p.credentials.GetByEmail(ctx, email); err == nil {
		return nil, domainerrors.ErrAlreadyExists
	} else if !errors.Is(err, domainerrors.ErrNotFound) {
		return nil, err
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, err
	}

	id := utils.GenerateUUIDv7()
	if err := p.credentials.Create(ctx, id, email, hash); err != nil {
		return nil, err
	}
	return p.issue(id, email)
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	id, hash, err := p.credentials.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !crypto.CheckPassword(password, hash) {
		return nil, domainerrors.ErrInvalidCredentials
	}
	return p.issue(id, email)
}

func (p *LocalProvider) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	claims, err := p.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, domainerrors.ErrUnauthorized
	}
	id, _ := claims.UserID()

	storedID, _, err := p.credentials.GetByEmail(ctx, claims.Email)
	if err != nil || storedID != id {
		return nil, domainerrors.ErrUnauthorized
	}
	return p.issue(id, claims.Email)
}

// SignOut is a no-op: local tokens are stateless and expire on their own.
func (p *LocalProvider) SignOut(context.Context, string) error {
	return nil
}

func (p *LocalProvider) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return p.credentials.Delete(ctx, id)
}

// SendPasswordReset only logs; there is no mailer in local mode.
func (p *LocalProvider) SendPasswordReset(ctx context.Context, email, redirectTo string) error {
	logger.Info(ctx, "Password reset requested (local provider, no email sent)",
		zap.String("email", email),
		zap.String("redirect_to", redirectTo),
	)
	return nil
}

func (p *LocalProvider) issue(id uuid.UUID, email string) (*Session, error) {
	pair, err := p.jwtService.GenerateTokenPair(id, email, providerRole)
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:       id,
		Email:        email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
