package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/apperrors"
	"github.com/nkiryanov/postgram/internal/handlers/render"
	"github.com/nkiryanov/postgram/internal/handlers/userctx"
)

type authService interface {
	// Read access token from request and return user id it was issued for
	// Has to return apperrors.ErrSecretNotConfigured if tokens can't be verified at all
	Auth(ctx context.Context, r *http.Request) (uuid.UUID, error)
}

// Allow request only with valid access token
// User id is available downstream with userctx.FromContext
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := as.Auth(r.Context(), r)
			switch {
			case errors.Is(err, apperrors.ErrSecretNotConfigured):
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
				return
			case err != nil:
				render.ServiceError(w, "Access Denied", http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
