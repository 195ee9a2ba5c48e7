// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Entitlement model.
//
// The (game_account_id, product_id) pair is unique in the schema, and
// InsertEntitlementIfAbsent relies on ON CONFLICT DO NOTHING against that
// index. Two concurrent grants of the same pair therefore leave one row; the
// caller that inserted it sees created=true, the other created=false.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/orion-relay/internal/domain"
)

// InsertEntitlementIfAbsent records ownership of productID by gameAccountID.
// It reports whether a new row was created.
func InsertEntitlementIfAbsent(ctx context.Context, db *gorm.DB, gameAccountID, productID string) (bool, error) {
	e := &domain.Entitlement{
		ID:            uuid.NewString(),
		GameAccountID: gameAccountID,
		ProductID:     productID,
		CreatedAt:     time.Now().UTC(),
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_account_id"}, {Name: "product_id"}},
		DoNothing: true,
	}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteEntitlement removes the ownership row if present and reports whether
// one existed.
func DeleteEntitlement(ctx context.Context, db *gorm.DB, gameAccountID, productID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("game_account_id = ? AND product_id = ?", gameAccountID, productID).
		Delete(&domain.Entitlement{})
	return res.RowsAffected > 0, res.Error
}

// HasEntitlement reports whether gameAccountID owns productID.
func HasEntitlement(ctx context.Context, db *gorm.DB, gameAccountID, productID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Entitlement{}).
		Where("game_account_id = ? AND product_id = ?", gameAccountID, productID).
		Count(&n).Error
	return n > 0, err
}

// ListOwnedProductIDs returns the product ids owned by gameAccountID in
// acquisition order.
func ListOwnedProductIDs(ctx context.Context, db *gorm.DB, gameAccountID string) ([]string, error) {
	out := []string{}
	err := db.WithContext(ctx).Model(&domain.Entitlement{}).
		Where("game_account_id = ?", gameAccountID).
		Order("created_at asc").
		Pluck("product_id", &out).Error
	return out, err
}

// ListProductOwners returns the game accounts that own productID.
func ListProductOwners(ctx context.Context, db *gorm.DB, productID string) ([]string, error) {
	out := []string{}
	err := db.WithContext(ctx).Model(&domain.Entitlement{}).
		Where("product_id = ?", productID).
		Order("created_at asc").
		Pluck("game_account_id", &out).Error
	return out, err
}

// DeleteEntitlementsForProduct removes every ownership row for productID.
func DeleteEntitlementsForProduct(ctx context.Context, db *gorm.DB, productID string) (int64, error) {
	res := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Delete(&domain.Entitlement{})
	return res.RowsAffected, res.Error
}

// CountEntitlements returns the number of rows for the pair (0 or 1).
func CountEntitlements(ctx context.Context, db *gorm.DB, gameAccountID, productID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.Entitlement{}).
		Where("game_account_id = ? AND product_id = ?", gameAccountID, productID).
		Count(&n).Error
	return n, err
}
