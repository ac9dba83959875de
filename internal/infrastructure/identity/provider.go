// Package identity talks to the service that owns credentials. Profiles live
// in our database; passwords and token issuance live behind Provider.
package identity

import (
	"context"

	"github.com/google/uuid"
)

// Session is what a provider hands back after authenticating a user.
// Tokens are empty when the provider requires email confirmation first.
type Session struct {
	UserID       uuid.UUID
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// HasTokens reports whether the session carries usable tokens.
func (s *Session) HasTokens() bool {
	return s != nil && s.AccessToken != ""
}

// Provider is the identity service contract.
type Provider interface {
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	SendPasswordReset(ctx context.Context, email, redirectTo string) error
}
