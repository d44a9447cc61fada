package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/apperrors"
	"github.com/nkiryanov/postgram/internal/handlers/render"
	"github.com/nkiryanov/postgram/internal/logger"
	"github.com/nkiryanov/postgram/internal/models"
)

type sessionResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	UserID       uuid.UUID `json:"userId"`
}

func newSessionResponse(s models.Session) sessionResponse {
	return sessionResponse{
		AccessToken:  s.Tokens.Access.Value,
		RefreshToken: s.Tokens.Refresh.Value,
		UserID:       s.UserID,
	}
}

func handleRegister(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,max=128"`
		Username string `json:"username" validate:"omitempty,min=2,max=50,username"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			logger.Debug("register request rejected", "error", err)
			return
		}

		user, err := authService.Register(r.Context(), data.Email, data.Password, data.Username)
		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists), errors.Is(err, apperrors.ErrInvalidUserData):
			render.ServiceError(w, "Can't register user with these credentials", http.StatusBadRequest)
			return
		case err != nil:
			internalError(w, r, logger, "error while registering user", err)
			return
		}

		render.JSONWithStatus(w, newUserResponse(user), http.StatusCreated)
	})
}

func handleLogin(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			logger.Debug("login request rejected", "error", err)
			return
		}

		session, err := authService.Login(r.Context(), data.Email, data.Password)
		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.ServiceError(w, "wrong username or password", http.StatusBadRequest)
			return
		case err != nil:
			internalError(w, r, logger, "error while logging in", err)
			return
		}

		render.JSON(w, newSessionResponse(session))
	})
}

func handleRefresh(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		session, err := authService.Refresh(r.Context(), data.RefreshToken)
		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenExpired):
			render.ServiceError(w, "Refresh token expired, please log in again", http.StatusUnauthorized)
			return
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "Invalid refresh token", http.StatusUnauthorized)
			return
		case err != nil:
			if !errors.Is(err, apperrors.ErrRefreshTokenInvalid) {
				logger.Error("error while refreshing tokens", "error", err)
			}
			render.ServiceError(w, "fail", http.StatusBadRequest)
			return
		}

		render.JSON(w, newSessionResponse(session))
	})
}

func handleLogout(authService authService, logger logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		err = authService.Logout(r.Context(), data.RefreshToken)
		if err != nil {
			logger.Error("error while logging out", "error", err)
			render.ServiceError(w, "fail", http.StatusBadRequest)
			return
		}

		render.JSON(w, response{Message: "Logged out successfully"})
	})
}
