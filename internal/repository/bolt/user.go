package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/nkiryanov/postgram/internal/apperrors"
	"github.com/nkiryanov/postgram/internal/models"
	"github.com/nkiryanov/postgram/internal/repository"
)

type UserRepo struct {
	db *bbolt.DB
}

// On-disk representation of the user
type userRecord struct {
	ID             uuid.UUID `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	Email          string    `json:"email"`
	Username       string    `json:"username"`
	HashedPassword string    `json:"password_hash"`
	ProfilePicture string    `json:"profile_picture"`
	RefreshTokens  []string  `json:"refresh_tokens"`
}

func (r userRecord) toModel() models.User {
	return models.User{
		ID:             r.ID,
		CreatedAt:      r.CreatedAt,
		Email:          r.Email,
		Username:       r.Username,
		HashedPassword: r.HashedPassword,
		ProfilePicture: r.ProfilePicture,
		RefreshTokens:  slices.Clone(r.RefreshTokens),
	}
}

func (r *UserRepo) CreateUser(ctx context.Context, params repository.CreateUserParams) (models.User, error) {
	rec := userRecord{
		ID:             uuid.New(),
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
		Email:          params.Email,
		Username:       params.Username,
		HashedPassword: params.HashedPassword,
		RefreshTokens:  []string{},
	}

	err := r.update(ctx, func(tx *bbolt.Tx) error {
		byEmail := tx.Bucket(bucketUsersByEmail)
		byUsername := tx.Bucket(bucketUsersByUsername)

		if byEmail.Get([]byte(rec.Email)) != nil || byUsername.Get([]byte(rec.Username)) != nil {
			return apperrors.ErrUserAlreadyExists
		}

		if err := byEmail.Put([]byte(rec.Email), rec.ID[:]); err != nil {
			return err
		}
		if err := byUsername.Put([]byte(rec.Username), rec.ID[:]); err != nil {
			return err
		}

		return putUser(tx, rec)
	})
	if err != nil {
		return models.User{}, err
	}

	return rec.toModel(), nil
}

func (r *UserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error) {
	var rec userRecord

	err := r.view(ctx, func(tx *bbolt.Tx) error {
		var err error
		rec, err = getUser(tx, userID)
		return err
	})

	return rec.toModel(), err
}

func (r *UserRepo) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var rec userRecord

	err := r.view(ctx, func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketUsersByEmail).Get([]byte(email))
		if id == nil {
			return apperrors.ErrUserNotFound
		}

		userID, err := uuid.FromBytes(id)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		rec, err = getUser(tx, userID)
		return err
	})

	return rec.toModel(), err
}

func (r *UserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, params repository.UpdateProfileParams) (models.User, error) {
	var rec userRecord

	err := r.update(ctx, func(tx *bbolt.Tx) error {
		var err error
		rec, err = getUser(tx, userID)
		if err != nil {
			return err
		}

		if params.Username != nil && *params.Username != rec.Username {
			byUsername := tx.Bucket(bucketUsersByUsername)
			if byUsername.Get([]byte(*params.Username)) != nil {
				return apperrors.ErrUserAlreadyExists
			}
			if err := byUsername.Delete([]byte(rec.Username)); err != nil {
				return err
			}
			if err := byUsername.Put([]byte(*params.Username), rec.ID[:]); err != nil {
				return err
			}
			rec.Username = *params.Username
		}

		if params.ProfilePicture != nil {
			rec.ProfilePicture = *params.ProfilePicture
		}

		return putUser(tx, rec)
	})

	return rec.toModel(), err
}

func (r *UserRepo) AddRefreshToken(ctx context.Context, userID uuid.UUID, token string) error {
	return r.update(ctx, func(tx *bbolt.Tx) error {
		rec, err := getUser(tx, userID)
		if err != nil {
			return fmt.Errorf("repo error: %w", err)
		}

		rec.RefreshTokens = append(rec.RefreshTokens, token)
		return putUser(tx, rec)
	})
}

// bbolt allows a single writer, so check and replace can't interleave with another rotation
func (r *UserRepo) RotateRefreshToken(ctx context.Context, userID uuid.UUID, old string, new string) error {
	return r.update(ctx, func(tx *bbolt.Tx) error {
		rec, err := getActiveTokenOwner(tx, userID, old)
		if err != nil {
			return err
		}

		rec.RefreshTokens = []string{new}
		return putUser(tx, rec)
	})
}

func (r *UserRepo) ClearRefreshTokens(ctx context.Context, userID uuid.UUID, presented string) error {
	return r.update(ctx, func(tx *bbolt.Tx) error {
		rec, err := getActiveTokenOwner(tx, userID, presented)
		if err != nil {
			return err
		}

		rec.RefreshTokens = []string{}
		return putUser(tx, rec)
	})
}

func (r *UserRepo) view(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.View(fn)
}

func (r *UserRepo) update(ctx context.Context, fn func(tx *bbolt.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.db.Update(fn)
}

func getActiveTokenOwner(tx *bbolt.Tx, userID uuid.UUID, token string) (userRecord, error) {
	rec, err := getUser(tx, userID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return rec, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	case err != nil:
		return rec, err
	case !slices.Contains(rec.RefreshTokens, token):
		return rec, fmt.Errorf("repo error: %w", apperrors.ErrRefreshTokenNotFound)
	}

	return rec, nil
}

func getUser(tx *bbolt.Tx, userID uuid.UUID) (userRecord, error) {
	var rec userRecord

	data := tx.Bucket(bucketUsers).Get(userID[:])
	if data == nil {
		return rec, apperrors.ErrUserNotFound
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("failed to unmarshal user: %w", err)
	}

	return rec, nil
}

func putUser(tx *bbolt.Tx, rec userRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	return tx.Bucket(bucketUsers).Put(rec.ID[:], data)
}
