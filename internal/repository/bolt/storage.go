package bolt

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/nkiryanov/postgram/internal/repository"
)

var (
	bucketUsers           = []byte("users")
	bucketUsersByEmail    = []byte("users_by_email")
	bucketUsersByUsername = []byte("users_by_username")
)

// Storage keeps users in a single bbolt file
// Suitable for local runs and tests without postgres
type Storage struct {
	db *bbolt.DB
}

// Open (or create) bbolt database at path
func New(path string) (*Storage, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}

	if err := s.initBuckets(); err != nil {
		db.Close() // nolint:errcheck
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return s, nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{db: s.db}
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketUsers, bucketUsersByEmail, bucketUsersByUsername} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, err)
			}
		}
		return nil
	})
}
