package models

import (
	"time"

	"github.com/google/uuid"
)

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issues by TokenManager
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}

// Session is returned to the user on login or refresh
type Session struct {
	UserID uuid.UUID
	Tokens TokenPair
}
