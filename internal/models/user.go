package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	Username       string
	HashedPassword string
	ProfilePicture string

	// Refresh tokens currently allowed to mint new sessions for the user
	RefreshTokens []string
}

// HasRefreshToken reports whether the token is still active for the user
func (u *User) HasRefreshToken(token string) bool {
	return slices.Contains(u.RefreshTokens, token)
}

// RemoveRefreshToken drops the token from the in-memory set only
// Storage must be updated by the caller
func (u *User) RemoveRefreshToken(token string) {
	u.RefreshTokens = slices.DeleteFunc(u.RefreshTokens, func(t string) bool {
		return t == token
	})
}
