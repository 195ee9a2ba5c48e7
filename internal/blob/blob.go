// Package blob stores product file payloads outside the catalog rows.
//
// A Store maps an opaque key to a byte slice. Two implementations exist:
// GormStore keeps payloads in the product_payloads table of the primary
// database, and S3Store keeps them in an S3-compatible bucket. Keys are
// never reused; replacing a product file writes a new key and deletes the
// old one afterwards.
package blob

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Get when no payload exists for a key.
var ErrNotFound = errors.New("blob not found")

// Store is the payload persistence contract used by the catalog.
type Store interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// NewKey returns a fresh, unique payload key for productID.
func NewKey(productID string) string {
	return "payloads/" + productID + "/" + uuid.NewString()
}
