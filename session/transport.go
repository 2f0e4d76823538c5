package session

import (
	"context"
	"time"
)

// LoginRequest carries password credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries a new account profile.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// PasswordChange carries a password change request.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// AuthData is the payload of a successful authentication response.
type AuthData struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"token"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// AuthResponse is the envelope returned by credential-issuing calls.
type AuthResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Data    *AuthData `json:"data,omitempty"`
}

func (r *AuthResponse) ok() bool {
	return r != nil && r.Success && r.Data != nil
}

// ProfileResponse is the envelope returned by profile calls.
type ProfileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *User  `json:"data,omitempty"`
}

// StatusResponse is the envelope returned by calls without a payload.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Transport is the remote auth service. A returned error is a transport-level
// or HTTP-status fault; a nil error with Success=false is a semantic fault.
// Implementations own timeouts.
type Transport interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	LoginWithFederatedToken(ctx context.Context, token string) (*AuthResponse, error)
	Logout(ctx context.Context) (*StatusResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	GetProfile(ctx context.Context) (*ProfileResponse, error)
	UpdateProfile(ctx context.Context, update ProfileUpdate) (*ProfileResponse, error)
	ChangePassword(ctx context.Context, change PasswordChange) (*StatusResponse, error)
}
