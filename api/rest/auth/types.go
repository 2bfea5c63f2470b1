package auth

import (
	"context"
	"time"

	"codeberg.org/dishdash/server/dishdash/users"
	"codeberg.org/dishdash/server/internal/auth"
)

// UserStore is satisfied by *users.Repository.
type UserStore interface {
	Authenticate(ctx context.Context, email, password string) (*users.User, error)
	FindByID(ctx context.Context, userID string) (*users.User, error)
	SetAvatar(ctx context.Context, userID, contentType string, data []byte) error
}

// TokenIssuer is satisfied by *auth.Issuer.
type TokenIssuer interface {
	Sign(p auth.Principal) (string, time.Time, error)
}

// LoginRequest is checked against loginSchema before decoding
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse returned after successful sign-in
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *users.User `json:"user"`
}

// MeResponse wraps the caller's identity
type MeResponse struct {
	Principal *auth.Principal `json:"principal"`
	User      *users.User     `json:"user"`
}

// AvatarResponse describes the stored upload
type AvatarResponse struct {
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}
