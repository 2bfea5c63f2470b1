package users

import (
	"context"

	"codeberg.org/dishdash/server/dishdash/users"
)

// Finder is satisfied by *users.Repository.
type Finder interface {
	FindByID(ctx context.Context, userID string) (*users.User, error)
}

// UserResponse wraps user data
type UserResponse struct {
	User *users.User `json:"user"`
}
