// Package services – LedgerService
//
// LedgerService records which game account owns which product. Ownership is
// the source of truth for entitlement; delivery is a side effect layered on
// top by EntitlementService.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/repo"
)

// LedgerService wraps the entitlements table.
type LedgerService struct {
	DB *gorm.DB
}

func checkPair(gameAccountID, productID string) error {
	if strings.TrimSpace(gameAccountID) == "" {
		return Invalidf("userId is required")
	}
	if strings.TrimSpace(productID) == "" {
		return Invalidf("productId is required")
	}
	return nil
}

// Grant inserts the pair if absent and reports whether a row was created.
// The product check and the insert share one transaction, so a Grant racing
// CatalogService.Remove either lands before the removal (and is revoked by
// it) or fails with ErrProductNotFound.
func (s *LedgerService) Grant(ctx context.Context, gameAccountID, productID string) (bool, error) {
	if err := checkPair(gameAccountID, productID); err != nil {
		return false, err
	}
	var created bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.LockProductShared(ctx, tx, productID); err != nil {
			return err
		}
		var err error
		created, err = repo.InsertEntitlementIfAbsent(ctx, tx, gameAccountID, productID)
		return err
	})
	if errors.Is(err, repo.ErrNotFound) {
		return false, ErrProductNotFound
	}
	return created, err
}

// Revoke deletes the pair if present. Absence is not an error.
func (s *LedgerService) Revoke(ctx context.Context, gameAccountID, productID string) (bool, error) {
	if err := checkPair(gameAccountID, productID); err != nil {
		return false, err
	}
	return repo.DeleteEntitlement(ctx, s.DB, gameAccountID, productID)
}

// IsOwned reports whether gameAccountID owns productID.
func (s *LedgerService) IsOwned(ctx context.Context, gameAccountID, productID string) (bool, error) {
	if err := checkPair(gameAccountID, productID); err != nil {
		return false, err
	}
	return repo.HasEntitlement(ctx, s.DB, gameAccountID, productID)
}

// ListOwned returns the product ids owned by gameAccountID.
func (s *LedgerService) ListOwned(ctx context.Context, gameAccountID string) ([]string, error) {
	if strings.TrimSpace(gameAccountID) == "" {
		return nil, Invalidf("userId is required")
	}
	return repo.ListOwnedProductIDs(ctx, s.DB, gameAccountID)
}

// Owners returns the game accounts owning productID.
func (s *LedgerService) Owners(ctx context.Context, productID string) ([]string, error) {
	return repo.ListProductOwners(ctx, s.DB, productID)
}

// RemoveAllForProduct deletes every ownership row for productID.
func (s *LedgerService) RemoveAllForProduct(ctx context.Context, productID string) (int64, error) {
	return repo.DeleteEntitlementsForProduct(ctx, s.DB, productID)
}
