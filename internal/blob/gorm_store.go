package blob

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/repo"
)

// GormStore keeps payload bytes in the relational database.
type GormStore struct {
	DB *gorm.DB
}

// NewGormStore returns a Store backed by db.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{DB: db} }

func (s *GormStore) Put(ctx context.Context, key string, data []byte) error {
	return repo.PutPayload(ctx, s.DB, key, data)
}

func (s *GormStore) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := repo.GetPayload(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return b, err
}

func (s *GormStore) Delete(ctx context.Context, key string) error {
	return repo.DeletePayload(ctx, s.DB, key)
}
