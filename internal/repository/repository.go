package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/models"
)

type Storage interface {
	User() UserRepo
}

type CreateUserParams struct {
	Email          string
	Username       string
	HashedPassword string
}

// Nil fields are left unchanged
type UpdateProfileParams struct {
	Username       *string
	ProfilePicture *string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email or username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update user profile fields
	// Username collision has to return apperrors.ErrUserAlreadyExists
	UpdateProfile(ctx context.Context, userID uuid.UUID, params UpdateProfileParams) (models.User, error)

	// Append refresh token to the user active tokens
	AddRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// Replace all user refresh tokens with the new one, but only if 'old' is still active
	// Must be atomic. If 'old' is not active has to return apperrors.ErrRefreshTokenNotFound
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error

	// Remove all user refresh tokens, but only if 'presented' is still active
	// Must be atomic. If 'presented' is not active has to return apperrors.ErrRefreshTokenNotFound
	ClearRefreshTokens(ctx context.Context, userID uuid.UUID, presented string) error
}
