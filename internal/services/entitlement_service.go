// Package services – EntitlementService
//
// EntitlementService orchestrates purchase, grant and revoke for a
// (gameAccountId, productId) pair:
//
//	NotOwned --purchase/grant--> Owned --revoke--> NotOwned
//
// Redelivery policy:
//   - purchase always delivers, also for an already owned pair. A repeated
//     purchase event is how a player recovers a lost or failed DM.
//   - grant delivers only when it created the row.
//   - revoke never sends anything.
//
// Purchase checks both preconditions (product exists, account linked) before
// writing ownership. Once ownership is written a failed delivery does not
// roll it back; the result reports Delivered=false instead.
package services

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/observability"
)

// OwnershipResult is returned by Purchase and Grant.
type OwnershipResult struct {
	Product    *domain.Product
	NewlyOwned bool
	// Delivery is nil when no delivery was attempted.
	Delivery *DeliveryResult
	// DeliveryErr holds the delivery failure, if any. Ownership stands.
	DeliveryErr error
}

// Delivered reports whether the payload reached the chat account.
func (r *OwnershipResult) Delivered() bool {
	return r != nil && r.Delivery != nil && r.Delivery.Delivered
}

// Profile is a game account's link and inventory.
type Profile struct {
	GameAccountID string
	ChatAccountID string
	Linked        bool
	Products      []domain.Product
}

// EntitlementService ties the ledger, catalog, links and delivery together.
type EntitlementService struct {
	Links    *LinkService
	Catalog  *CatalogService
	Ledger   *LedgerService
	Delivery *DeliveryService
	Audit    AuditSink
}

// Purchase records that gameAccountID bought the product with externalID and
// delivers it. Unknown products yield ErrProductNotFound and missing links
// ErrNoLink; neither writes ownership.
func (s *EntitlementService) Purchase(ctx context.Context, gameAccountID, externalID string) (*OwnershipResult, error) {
	tr := otel.Tracer("services/EntitlementService")
	ctx, span := tr.Start(ctx, "Purchase",
		trace.WithAttributes(
			attribute.String("game.account_id", gameAccountID),
			attribute.String("product.external_id", externalID),
		),
	)
	defer span.End()

	gameAccountID = strings.TrimSpace(gameAccountID)
	externalID = strings.TrimSpace(externalID)
	if gameAccountID == "" {
		return nil, Invalidf("userId is required")
	}
	if externalID == "" {
		return nil, Invalidf("devProductId is required")
	}

	p, err := s.Catalog.FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if _, ok, err := s.Links.LookupByGameAccount(ctx, gameAccountID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrNoLink
	}

	created, err := s.Ledger.Grant(ctx, gameAccountID, p.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	observability.Grants.WithLabelValues("purchase", grantLabel(created)).Inc()

	res := &OwnershipResult{Product: p, NewlyOwned: created}
	res.Delivery, res.DeliveryErr = s.Delivery.Deliver(ctx, gameAccountID, p, ReasonPurchase)
	return res, nil
}

// Grant gives productID to gameAccountID on behalf of actor. It delivers only
// when the row is new; a missing link leaves the grant in place and reports
// the delivery error.
func (s *EntitlementService) Grant(ctx context.Context, gameAccountID, productID, actor string) (*OwnershipResult, error) {
	gameAccountID = strings.TrimSpace(gameAccountID)
	if err := checkPair(gameAccountID, productID); err != nil {
		return nil, err
	}
	p, err := s.Catalog.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	created, err := s.Ledger.Grant(ctx, gameAccountID, p.ID)
	if err != nil {
		return nil, err
	}
	observability.Grants.WithLabelValues("grant", grantLabel(created)).Inc()

	res := &OwnershipResult{Product: p, NewlyOwned: created}
	if created {
		emit(ctx, s.Audit, AuditEvent{Action: AuditGranted, Actor: actor, Target: gameAccountID, Detail: p.Name})
		res.Delivery, res.DeliveryErr = s.Delivery.Deliver(ctx, gameAccountID, p, ReasonGrant)
	}
	return res, nil
}

// Revoke removes productID from gameAccountID. It reports whether the pair
// was owned.
func (s *EntitlementService) Revoke(ctx context.Context, gameAccountID, productID, actor string) (bool, error) {
	existed, err := s.Ledger.Revoke(ctx, gameAccountID, productID)
	if err != nil {
		return false, err
	}
	if existed {
		emit(ctx, s.Audit, AuditEvent{Action: AuditRevoked, Actor: actor, Target: gameAccountID, Detail: productID})
	}
	return existed, nil
}

// CheckByExternalID reports whether gameAccountID owns the product with
// externalID. Unknown products are simply not owned.
func (s *EntitlementService) CheckByExternalID(ctx context.Context, gameAccountID, externalID string) (bool, error) {
	if strings.TrimSpace(externalID) == "" {
		return false, Invalidf("devProductId is required")
	}
	p, err := s.Catalog.FindByExternalID(ctx, externalID)
	if errors.Is(err, ErrProductNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.Ledger.IsOwned(ctx, gameAccountID, p.ID)
}

// CheckByProductID reports whether gameAccountID owns productID.
func (s *EntitlementService) CheckByProductID(ctx context.Context, gameAccountID, productID string) (bool, error) {
	return s.Ledger.IsOwned(ctx, strings.TrimSpace(gameAccountID), strings.TrimSpace(productID))
}

// ListOwned returns the product ids owned by gameAccountID.
func (s *EntitlementService) ListOwned(ctx context.Context, gameAccountID string) ([]string, error) {
	return s.Ledger.ListOwned(ctx, strings.TrimSpace(gameAccountID))
}

// Profile returns link state and owned products for gameAccountID.
func (s *EntitlementService) Profile(ctx context.Context, gameAccountID string) (*Profile, error) {
	ids, err := s.ListOwned(ctx, gameAccountID)
	if err != nil {
		return nil, err
	}
	chatID, linked, err := s.Links.LookupByGameAccount(ctx, gameAccountID)
	if err != nil {
		return nil, err
	}
	products, err := s.Catalog.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return &Profile{
		GameAccountID: strings.TrimSpace(gameAccountID),
		ChatAccountID: chatID,
		Linked:        linked,
		Products:      products,
	}, nil
}

func grantLabel(created bool) string {
	if created {
		return "created"
	}
	return "already_owned"
}
