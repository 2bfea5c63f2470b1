package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/dishdash/server/internal/auth"
	apperrors "codeberg.org/dishdash/server/internal/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// compared against when the email is unknown so both failures cost one bcrypt run
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dishdash-timing-equaliser"), bcrypt.DefaultCost)

// creates a new user repository
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// finds a user by email (case-insensitive); returns USER_001 when absent
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	email = normalizeEmail(email)
	return r.findOne(ctx, queryFindByEmail, email)
}

// finds a user by their ID
func (r *Repository) FindByID(ctx context.Context, userID string) (*User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidationBadID, err)
	}

	return r.findOne(ctx, queryFindByID, userID)
}

// Authenticate checks credentials. Unknown email and wrong password are both AUTH_005.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := r.FindByEmail(ctx, email)
	if err != nil {
		if code, ok := apperrors.CodeOf(err); ok && code == apperrors.CodeUserNotFound {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, apperrors.New(apperrors.CodeAuthInvalidLogin)
		}

		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeAuthInvalidLogin, err)
	}

	if !user.Active {
		return nil, apperrors.New(apperrors.CodeAuthAccountDisabled)
	}

	return user, nil
}

// stores a profile picture for the user
func (r *Repository) SetAvatar(ctx context.Context, userID, contentType string, data []byte) error {
	tag, err := r.db.Exec(ctx, querySetAvatar, data, contentType, userID)
	if err != nil {
		return apperrors.DataAccess(querySetAvatar, []any{"<bytes>", contentType, userID}, err)
	}

	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.CodeUserNotFound)
	}

	return nil
}

func (r *Repository) findOne(ctx context.Context, query string, arg string) (*User, error) {
	var user User
	var role string

	err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&role,
		&user.PasswordHash,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.CodeUserNotFound, err)
	}

	if err != nil {
		return nil, apperrors.DataAccess(query, []any{arg}, err)
	}

	parsed, ok := auth.ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("user %s has unknown role %q", user.ID, role)
	}

	user.Role = parsed

	return &user, nil
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
