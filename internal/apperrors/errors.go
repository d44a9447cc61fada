package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidUserData    = errors.New("email and password are required")
	ErrInvalidCredentials = errors.New("wrong username or password")
	ErrForbidden          = errors.New("operation not allowed for this user")

	// Signing secret is empty: server misconfiguration, not a user error
	ErrSecretNotConfigured = errors.New("token secret is not configured")

	ErrAccessTokenInvalid = errors.New("access token is invalid")

	ErrRefreshTokenInvalid  = errors.New("refresh token is invalid")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
)
