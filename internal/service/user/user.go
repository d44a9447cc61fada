package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/apperrors"
	"github.com/nkiryanov/postgram/internal/models"
	"github.com/nkiryanov/postgram/internal/repository"
	"github.com/nkiryanov/postgram/internal/service/auth"
)

type UserService struct {
	hasher  auth.PasswordHasher
	storage repository.Storage
}

func NewService(hasher auth.PasswordHasher, storage repository.Storage) *UserService {
	if hasher == nil {
		hasher = auth.DefaultHasher
	}

	return &UserService{
		hasher:  hasher,
		storage: storage,
	}
}

// Create user with hashed password
// If username is empty the email local part is used
func (s *UserService) CreateUser(ctx context.Context, email string, password string, username string) (models.User, error) {
	var user models.User

	if email == "" || password == "" {
		return user, apperrors.ErrInvalidUserData
	}

	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user, fmt.Errorf("can't use this as password, Err: %w", err)
	}

	user, err = s.storage.User().CreateUser(ctx, repository.CreateUserParams{
		Email:          email,
		Username:       username,
		HashedPassword: hash,
	})
	if err != nil {
		return user, fmt.Errorf("can't create user. Err: %w", err)
	}

	return user, nil
}

// Find user by email and check the password
// Unknown email and wrong password are not distinguished
func (s *UserService) Login(ctx context.Context, email string, password string) (models.User, error) {
	user, err := s.storage.User().GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.User{}, fmt.Errorf("can't get user. Err: %w", err)
	}

	if !s.hasher.Compare(user.HashedPassword, password) {
		return models.User{}, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.storage.User().GetUserByID(ctx, userID)
}

// Update profile fields of the user
// Only the user itself allowed to do this
func (s *UserService) UpdateProfile(ctx context.Context, actorID uuid.UUID, userID uuid.UUID, params repository.UpdateProfileParams) (models.User, error) {
	if actorID != userID {
		return models.User{}, apperrors.ErrForbidden
	}

	if params.Username != nil && *params.Username == "" {
		return models.User{}, fmt.Errorf("%w: username must not be empty", apperrors.ErrInvalidUserData)
	}

	return s.storage.User().UpdateProfile(ctx, userID, params)
}

func (s *UserService) AddRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	return s.storage.User().AddRefreshToken(ctx, userID, token)
}

func (s *UserService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error {
	return s.storage.User().RotateRefreshToken(ctx, userID, old, new)
}

func (s *UserService) ClearRefreshTokens(ctx context.Context, userID uuid.UUID, presented string) error {
	return s.storage.User().ClearRefreshTokens(ctx, userID, presented)
}
