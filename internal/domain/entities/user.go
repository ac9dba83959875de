package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// UserRole represents user roles
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleClient UserRole = "client"
)

// UserStatus tracks where an account is in the KYC lifecycle
type UserStatus string

const (
	UserStatusPendingKYC UserStatus = "pending_kyc"
	UserStatusActive     UserStatus = "active"
	UserStatusSuspended  UserStatus = "suspended"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserStatusPendingKYC, UserStatusActive, UserStatusSuspended:
		return true
	}
	return false
}

// User is the profile row that mirrors an identity-provider account.
type User struct {
	ID         uuid.UUID   `json:"id"`
	Email      string      `json:"email"`
	Role       UserRole    `json:"role"`
	Status     UserStatus  `json:"status"`
	FullName   null.String `json:"full_name"`
	Phone      null.String `json:"phone"`
	Country    null.String `json:"country"`
	ApprovedAt null.Time   `json:"approved_at"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// HomePath is where the web app sends the user after login.
func (u *User) HomePath() string {
	switch {
	case u.IsAdmin():
		return "/admin"
	case u != nil && u.Status == UserStatusPendingKYC:
		return "/onboarding"
	default:
		return "/dashboard"
	}
}

// SignUpInput represents input for creating an account
type SignUpInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	FullName string `json:"full_name" binding:"required,min=2,max=120"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
	Country  string `json:"country" binding:"omitempty,oneof=PE VE"`
}

// LoginInput represents input for user login
type LoginInput struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	UseSession bool   `json:"use_session"`
}

// RefreshInput carries a refresh token
type RefreshInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ResetPasswordInput requests a password reset email
type ResetPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfileInput holds the editable profile fields
type UpdateProfileInput struct {
	FullName *string `json:"full_name" binding:"omitempty,min=2,max=120"`
	Phone    *string `json:"phone" binding:"omitempty,phone"`
	Country  *string `json:"country" binding:"omitempty,oneof=PE VE"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	Redirect     string `json:"redirect,omitempty"`
	User         *User  `json:"user"`
}

// SetUserStatusInput is used by admins to suspend or reactivate an account
type SetUserStatusInput struct {
	Status UserStatus `json:"status" binding:"required,oneof=active suspended"`
	Reason string     `json:"reason" binding:"max=500"`
}
