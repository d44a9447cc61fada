package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/apperrors"
	"github.com/nkiryanov/postgram/internal/models"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

type Config struct {
	// Header to read access token from
	AccessHeaderName string

	// Auth scheme expected before the token, compared case-insensitively
	AccessAuthScheme string
}

// Issues and parses signed tokens
type TokenManager interface {
	IssuePair(userID uuid.UUID) (models.TokenPair, error)

	// Has to return apperrors.ErrAccessTokenInvalid for bad tokens
	// or apperrors.ErrSecretNotConfigured
	ParseAccess(access string) (uuid.UUID, error)

	// Has to return apperrors.ErrRefreshTokenExpired for bad tokens
	// or apperrors.ErrSecretNotConfigured
	ParseRefresh(refresh string) (uuid.UUID, error)
}

type UserService interface {
	// Has to return apperrors.ErrUserAlreadyExists if email or username taken
	CreateUser(ctx context.Context, email string, password string, username string) (models.User, error)

	// Has to return apperrors.ErrInvalidCredentials if email unknown or password is wrong
	Login(ctx context.Context, email string, password string) (models.User, error)

	// Has to return apperrors.ErrUserNotFound
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)

	AddRefreshToken(ctx context.Context, userID uuid.UUID, token string) error

	// Has to return apperrors.ErrRefreshTokenNotFound if 'old' or 'presented' token is not active
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error
	ClearRefreshTokens(ctx context.Context, userID uuid.UUID, presented string) error
}

// Auth service
type AuthService struct {
	accessHeaderName string
	accessAuthScheme string

	// Manager to issue and parse tokens
	tokens TokenManager

	users UserService
}

func NewService(cfg Config, tokens TokenManager, users UserService) *AuthService {
	setDefault := func(field *string, def string) {
		if *field == "" {
			*field = def
		}
	}
	setDefault(&cfg.AccessHeaderName, defaultAccessHeaderName)
	setDefault(&cfg.AccessAuthScheme, defaultAccessAuthScheme)

	return &AuthService{
		accessHeaderName: cfg.AccessHeaderName,
		accessAuthScheme: cfg.AccessAuthScheme,
		tokens:           tokens,
		users:            users,
	}
}

// Create user. Username derived from email if empty
func (s *AuthService) Register(ctx context.Context, email string, password string, username string) (models.User, error) {
	return s.users.CreateUser(ctx, email, password, username)
}

// Check credentials and start new session
// Refresh token appended to the user active ones, other sessions stay alive
func (s *AuthService) Login(ctx context.Context, email string, password string) (models.Session, error) {
	var session models.Session

	user, err := s.users.Login(ctx, email, password)
	if err != nil {
		return session, err
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return session, fmt.Errorf("token could not generated, sorry. Err: %w", err)
	}

	err = s.users.AddRefreshToken(ctx, user.ID, pair.Refresh.Value)
	if err != nil {
		return session, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return models.Session{UserID: user.ID, Tokens: pair}, nil
}

// Resolve user the refresh token belongs to
// Returned user has the token already removed from RefreshTokens, caller has to persist it
//
// Errors:
//   - apperrors.ErrRefreshTokenInvalid: token empty or secret not configured
//   - apperrors.ErrRefreshTokenExpired: bad signature, expired, already used or revoked
//   - apperrors.ErrUserNotFound: token signed for unknown user
func (s *AuthService) VerifyRefresh(ctx context.Context, refresh string) (models.User, error) {
	var user models.User

	if refresh == "" {
		return user, apperrors.ErrRefreshTokenInvalid
	}

	userID, err := s.tokens.ParseRefresh(refresh)
	switch {
	case errors.Is(err, apperrors.ErrSecretNotConfigured):
		return user, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenInvalid, err)
	case err != nil:
		return user, err
	}

	user, err = s.users.GetUser(ctx, userID)
	if err != nil {
		return user, fmt.Errorf("error while getting refresh token owner. Err: %w", err)
	}

	if !user.HasRefreshToken(refresh) {
		return user, fmt.Errorf("%w: token is not active", apperrors.ErrRefreshTokenExpired)
	}

	user.RemoveRefreshToken(refresh)
	return user, nil
}

// Exchange refresh token for a new pair
// All user refresh tokens are replaced with the new one
func (s *AuthService) Refresh(ctx context.Context, refresh string) (models.Session, error) {
	var session models.Session

	user, err := s.VerifyRefresh(ctx, refresh)
	if err != nil {
		return session, err
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return session, fmt.Errorf("token could not generated, sorry. Err: %w", err)
	}

	err = s.users.RotateRefreshToken(ctx, user.ID, refresh, pair.Refresh.Value)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		// Concurrent refresh or logout consumed the token first
		return session, fmt.Errorf("%w: %w", apperrors.ErrRefreshTokenExpired, err)
	case err != nil:
		return session, fmt.Errorf("error while rotating refresh token. Err: %w", err)
	}

	return models.Session{UserID: user.ID, Tokens: pair}, nil
}

// Revoke all user refresh tokens
// Tokens that are already unusable are not an error
func (s *AuthService) Logout(ctx context.Context, refresh string) error {
	user, err := s.VerifyRefresh(ctx, refresh)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenInvalid),
		errors.Is(err, apperrors.ErrRefreshTokenExpired),
		errors.Is(err, apperrors.ErrUserNotFound):
		return nil
	case err != nil:
		return err
	}

	err = s.users.ClearRefreshTokens(ctx, user.ID, refresh)
	if err != nil && !errors.Is(err, apperrors.ErrRefreshTokenNotFound) {
		return fmt.Errorf("error while clearing refresh tokens. Err: %w", err)
	}

	return nil
}

// Validate access token and return user id it was issued for
// Stateless: revoked sessions are not checked, access token lives until it expires
func (s *AuthService) VerifyAccess(ctx context.Context, access string) (uuid.UUID, error) {
	if access == "" {
		return uuid.Nil, fmt.Errorf("%w: token is empty", apperrors.ErrAccessTokenInvalid)
	}

	return s.tokens.ParseAccess(access)
}

// Read access token from request header and verify it
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (uuid.UUID, error) {
	header := r.Header.Get(s.accessHeaderName)

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, s.accessAuthScheme) {
		return uuid.Nil, fmt.Errorf("%w: no %s credentials in %s header", apperrors.ErrAccessTokenInvalid, s.accessAuthScheme, s.accessHeaderName)
	}

	return s.VerifyAccess(ctx, strings.TrimSpace(token))
}
