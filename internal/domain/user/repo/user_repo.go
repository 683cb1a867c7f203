package repo

import (
	"context"

	"github.com/Miraines/videotube/internal/domain/user/model"
	"github.com/google/uuid"
)

// UserRepo is the credential store. Username and email are unique; a
// duplicate on create is reported as errors.ErrAlreadyExists.
type UserRepo interface {
	CreateUser(ctx context.Context, u model.User) (uuid.UUID, error)

	GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	// GetSanitizedUserByID loads the user without password and refresh token.
	GetSanitizedUserByID(ctx context.Context, id uuid.UUID) (model.User, error)

	// FindByUsernameOrEmail matches either identity; empty arguments are ignored.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (model.User, error)

	// UpdateUser validates u and writes it back.
	UpdateUser(ctx context.Context, u model.User) error

	// RotateRefreshToken replaces the stored refresh token only while it still
	// equals old. A lost race reports errors.ErrInvalidToken.
	RotateRefreshToken(ctx context.Context, id uuid.UUID, old, next string) error

	Ping(ctx context.Context) error
}

// PasswordHasher hashes passwords before they reach the store and checks
// candidates against stored hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(password, hash string) (bool, error)
}
