package handlers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/services"
)

//
// Service contracts (context-aware)
//

// CodeIssuer mints verification codes for game accounts.
type CodeIssuer interface {
	// Issue stores code for gameAccountID, replacing an older code row.
	Issue(ctx context.Context, gameAccountID, code string) error
}

// LinkLookup resolves game accounts to chat accounts.
type LinkLookup interface {
	// LookupByGameAccount returns the linked chat account, if any.
	LookupByGameAccount(ctx context.Context, gameAccountID string) (string, bool, error)
}

// Catalog defines the product operations exposed over HTTP.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type Catalog interface {
	Create(ctx context.Context, in services.ProductInput, actor string) (*domain.Product, error)
	Remove(ctx context.Context, id, actor string) (int64, error)
	List(ctx context.Context, hub string) ([]domain.Product, error)
	NormalizeHub(raw string) (string, error)
}

// Entitlements defines purchase and ownership checks.
type Entitlements interface {
	Purchase(ctx context.Context, gameAccountID, externalID string) (*services.OwnershipResult, error)
	CheckByExternalID(ctx context.Context, gameAccountID, externalID string) (bool, error)
	CheckByProductID(ctx context.Context, gameAccountID, productID string) (bool, error)
	ListOwned(ctx context.Context, gameAccountID string) ([]string, error)
}

// Downtime reads and writes the global maintenance flag.
type Downtime interface {
	Get(ctx context.Context) (bool, error)
	Set(ctx context.Context, enabled bool, updatedBy string) (bool, error)
}

// Status tracks bot liveness.
type Status interface {
	Beat(hb services.Heartbeat)
	Snapshot() services.StatusSnapshot
}

//
// Handler wiring
//

// Deps lists what the handlers need. DB is optional; without it the catalog
// listing skips ETags and purchases are not replayable.
type Deps struct {
	Codes        CodeIssuer
	Links        LinkLookup
	Catalog      Catalog
	Entitlements Entitlements
	Downtime     Downtime
	Status       Status

	DB             *gorm.DB
	IdempotencyTTL time.Duration
}

// Handlers groups the game-facing and admin HTTP endpoints.
type Handlers struct {
	codes    CodeIssuer
	links    LinkLookup
	catalog  Catalog
	ents     Entitlements
	downtime Downtime
	status   Status

	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs and returns a Handlers instance bound to d.
func New(d Deps) *Handlers {
	ttl := d.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{
		codes:    d.Codes,
		links:    d.Links,
		catalog:  d.Catalog,
		ents:     d.Entitlements,
		downtime: d.Downtime,
		status:   d.Status,
		db:       d.DB,
		idemTTL:  ttl,
	}
}
