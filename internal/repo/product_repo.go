// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Product
// model.
//
// The repository follows the "thin" approach: it performs persistence and
// query composition, and leaves hub normalization, required-field checks,
// and payload handling to services.CatalogService.
//
// Error semantics:
//   - CreateProduct and UpdateProductFields return ErrDuplicate when the
//     external id unique index rejects the write.
//   - Single-row reads and writes return ErrNotFound when the row is absent.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/orion-relay/internal/domain"
)

// CreateProduct inserts p. The caller assigns ID and PayloadKey.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetProduct fetches a product by id, or ErrNotFound.
func GetProduct(ctx context.Context, db *gorm.DB, id string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProductByExternalID fetches a product by the game's product id, or
// ErrNotFound.
func GetProductByExternalID(ctx context.Context, db *gorm.DB, externalID string) (*domain.Product, error) {
	var p domain.Product
	if err := db.WithContext(ctx).Where("external_id = ?", externalID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ExternalIDTaken reports whether another product (not excludeID) already
// uses externalID.
func ExternalIDTaken(ctx context.Context, db *gorm.DB, externalID, excludeID string) (bool, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.Product{}).Where("external_id = ?", externalID)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListProducts returns products ordered by hub then name. An empty hub
// lists every hub.
func ListProducts(ctx context.Context, db *gorm.DB, hub string) ([]domain.Product, error) {
	var out []domain.Product
	q := db.WithContext(ctx).Order("hub asc").Order("name asc")
	if hub != "" {
		q = q.Where("hub = ?", hub)
	}
	err := q.Find(&out).Error
	return out, err
}

// GetProductsByIDs returns the products with the given ids, in no
// particular order. Unknown ids are skipped.
func GetProductsByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	var out []domain.Product
	err := db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

// UpdateProductFields applies a column→value patch to one product in a
// single UPDATE statement, so columns that change together (file name,
// size, payload key) are never observed half-written.
func UpdateProductFields(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		if IsDuplicate(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LockProductShared reads the product id under a shared row lock so a
// concurrent DeleteProduct waits for the caller's transaction. SQLite has no
// row locks and relies on its single writer instead. Returns ErrNotFound.
func LockProductShared(ctx context.Context, tx *gorm.DB, id string) error {
	var p domain.Product
	return tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "SHARE"}).
		Select("id").
		Where("id = ?", id).
		First(&p).Error
}

// DeleteProduct removes a product row. It returns ErrNotFound if no row was
// deleted.
func DeleteProduct(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
