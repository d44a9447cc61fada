package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/handlers/middleware"
	"github.com/nkiryanov/postgram/internal/logger"
	"github.com/nkiryanov/postgram/internal/models"
	"github.com/nkiryanov/postgram/internal/repository"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authService authService,
	userService userService,
	logger logger.Logger,
) http.Handler {
	withAuth := middleware.AuthMiddleware(authService)

	mux := http.NewServeMux()

	mux.Handle("POST /auth/register", handleRegister(authService, logger))
	mux.Handle("POST /auth/login", handleLogin(authService, logger))
	mux.Handle("POST /auth/refresh", handleRefresh(authService, logger))
	mux.Handle("POST /auth/logout", handleLogout(authService, logger))

	mux.Handle("GET /users/me", withAuth(handleUserMe(userService, logger)))
	mux.Handle("GET /users/{id}", withAuth(handleGetUser(userService, logger)))
	mux.Handle("PUT /users/{id}", withAuth(handleUpdateUser(userService, logger)))

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.RecoverMiddleware(logger),
	)

	return handler
}

type authService interface {
	// Register user with email and password, username is optional
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, email string, password string, username string) (models.User, error)

	// Login user with email and password
	// Has to return apperrors.ErrInvalidCredentials if email unknown or password wrong
	// Has to return apperrors.ErrSecretNotConfigured if tokens can't be signed
	Login(ctx context.Context, email string, password string) (models.Session, error)

	// Exchange refresh token for a new pair
	// If token expired, already used or revoked: has to return apperrors.ErrRefreshTokenExpired
	// If token belongs to unknown user: has to return apperrors.ErrUserNotFound
	Refresh(ctx context.Context, refresh string) (models.Session, error)

	// Revoke user refresh tokens
	// Has to return error only if something unexpected happened
	Logout(ctx context.Context, refresh string) error

	// Get request and return user id if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (uuid.UUID, error)
}

type userService interface {
	// Has to return apperrors.ErrUserNotFound
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)

	// Has to return apperrors.ErrForbidden if actor is not the user
	// Has to return apperrors.ErrUserAlreadyExists if username taken
	UpdateProfile(ctx context.Context, actorID uuid.UUID, userID uuid.UUID, params repository.UpdateProfileParams) (models.User, error)
}
