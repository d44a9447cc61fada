package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/apperrors"
	"github.com/nkiryanov/postgram/internal/handlers/render"
	"github.com/nkiryanov/postgram/internal/handlers/userctx"
	"github.com/nkiryanov/postgram/internal/logger"
	"github.com/nkiryanov/postgram/internal/models"
	"github.com/nkiryanov/postgram/internal/repository"
)

// Public user representation: no password hash, no refresh tokens
type userResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
}

func newUserResponse(u models.User) userResponse {
	return userResponse{
		ID:             u.ID,
		Email:          u.Email,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		CreatedAt:      u.CreatedAt,
	}
}

func handleUserMe(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := userctx.FromContext(r.Context())
		renderUser(w, r, userService, logger, userID)
	})
}

func handleGetUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		renderUser(w, r, userService, logger, userID)
	})
}

func renderUser(w http.ResponseWriter, r *http.Request, userService userService, logger logger.Logger, userID uuid.UUID) {
	user, err := userService.GetUser(r.Context(), userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
		return
	case err != nil:
		internalError(w, r, logger, "error while getting user", err)
		return
	}

	render.JSON(w, newUserResponse(user))
}

func handleUpdateUser(userService userService, logger logger.Logger) http.Handler {
	type request struct {
		Username       *string `json:"username" validate:"omitempty,min=2,max=50,username"`
		ProfilePicture *string `json:"profilePicture" validate:"omitempty,url,max=2048"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actorID, _ := userctx.FromContext(r.Context())

		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		user, err := userService.UpdateProfile(r.Context(), actorID, userID, repository.UpdateProfileParams{
			Username:       data.Username,
			ProfilePicture: data.ProfilePicture,
		})
		switch {
		case errors.Is(err, apperrors.ErrForbidden):
			render.ServiceError(w, "Operation not allowed", http.StatusForbidden)
			return
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusNotFound)
			return
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "Username already taken", http.StatusBadRequest)
			return
		case errors.Is(err, apperrors.ErrInvalidUserData):
			render.ServiceError(w, "Username must not be empty", http.StatusBadRequest)
			return
		case err != nil:
			internalError(w, r, logger, "error while updating user", err)
			return
		}

		render.JSON(w, newUserResponse(user))
	})
}
