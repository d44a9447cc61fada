package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nkiryanov/postgram/internal/apperrors"
)

const addRefreshToken = `-- name: AddRefreshToken
UPDATE users
SET refresh_tokens = array_append(refresh_tokens, $2)
WHERE id = $1
`

func (r *UserRepo) AddRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	tag, err := r.DB.Exec(ctx, addRefreshToken, userID, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrUserNotFound)
	}

	return nil
}

// The WHERE clause is the compare part of compare-and-swap:
// two concurrent rotations of the same token can't both match
const rotateRefreshToken = `-- name: RotateRefreshToken
UPDATE users
SET refresh_tokens = ARRAY[$3::text]
WHERE id = $1 AND $2 = ANY(refresh_tokens)
`

func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error {
	tag, err := r.DB.Exec(ctx, rotateRefreshToken, userID, old, new)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}

	return nil
}

const clearRefreshTokens = `-- name: ClearRefreshTokens
UPDATE users
SET refresh_tokens = '{}'
WHERE id = $1 AND $2 = ANY(refresh_tokens)
`

func (r *UserRepo) ClearRefreshTokens(ctx context.Context, userID uuid.UUID, presented string) error {
	tag, err := r.DB.Exec(ctx, clearRefreshTokens, userID, presented)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}

	return nil
}
