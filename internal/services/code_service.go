// Package services – CodeService
//
// This file implements the verification code store used for account linking.
// The game backend mints a short numeric code for a player; the player types
// it into chat; the exchange consumes it exactly once and yields the game
// account id the caller then links.
//
// Two CodeStore implementations exist: SQLCodeStore (below) and the Redis
// store in package cache. Both guarantee that at most one concurrent Take of
// a code succeeds.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/observability"
	"github.com/tbourn/orion-relay/internal/repo"
)

// DefaultCodeTTL is how long an issued code stays exchangeable.
const DefaultCodeTTL = 10 * time.Minute

// maxCodeLen matches the width of the code column.
const maxCodeLen = 32

// CodeStore persists codes. Take must be atomic with respect to concurrent
// callers: for one issued code, at most one Take returns ok=true.
type CodeStore interface {
	Issue(ctx context.Context, code, gameAccountID string, ttl time.Duration) error
	Take(ctx context.Context, code string, ttl time.Duration) (gameAccountID string, ok bool, err error)
	Invalidate(ctx context.Context, gameAccountID string) (int64, error)
}

// CodeService validates inputs and applies the TTL policy on top of a store.
type CodeService struct {
	Store CodeStore
	TTL   time.Duration
}

// NewCodeService returns a service with the default TTL when ttl <= 0.
func NewCodeService(store CodeStore, ttl time.Duration) *CodeService {
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}
	return &CodeService{Store: store, TTL: ttl}
}

// Issue stores code for gameAccountID. Reissuing a live code overwrites it.
func (s *CodeService) Issue(ctx context.Context, gameAccountID, code string) error {
	gameAccountID = strings.TrimSpace(gameAccountID)
	code = strings.TrimSpace(code)
	if gameAccountID == "" {
		return Invalidf("userId is required")
	}
	if code == "" {
		return Invalidf("code is required")
	}
	if len(code) > maxCodeLen {
		return Invalidf("code must be at most %d characters", maxCodeLen)
	}
	return s.Store.Issue(ctx, code, gameAccountID, s.TTL)
}

// Exchange consumes code on behalf of chatAccountID and returns the game
// account it was issued for. Unknown, expired and already consumed codes all
// yield ErrCodeNotFound.
func (s *CodeService) Exchange(ctx context.Context, code, chatAccountID string) (string, error) {
	tr := otel.Tracer("services/CodeService")
	ctx, span := tr.Start(ctx, "Exchange",
		trace.WithAttributes(attribute.String("chat.account_id", chatAccountID)),
	)
	defer span.End()

	code = strings.TrimSpace(code)
	if code == "" {
		return "", Invalidf("code is required")
	}
	if strings.TrimSpace(chatAccountID) == "" {
		return "", Invalidf("chat account is required")
	}

	g, ok, err := s.Store.Take(ctx, code, s.TTL)
	if err != nil {
		observability.CodesExchanged.WithLabelValues("error").Inc()
		span.RecordError(err)
		return "", err
	}
	if !ok {
		observability.CodesExchanged.WithLabelValues("not_found").Inc()
		return "", ErrCodeNotFound
	}
	observability.CodesExchanged.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.String("game.account_id", g))
	return g, nil
}

// Invalidate removes every outstanding code for gameAccountID.
func (s *CodeService) Invalidate(ctx context.Context, gameAccountID string) (int64, error) {
	return s.Store.Invalidate(ctx, gameAccountID)
}

// SQLCodeStore keeps codes in the verification_codes table. Expiry is checked
// at lookup time; Purge removes the leftovers.
type SQLCodeStore struct {
	DB  *gorm.DB
	Now func() time.Time
}

// NewSQLCodeStore returns a store on db using the wall clock.
func NewSQLCodeStore(db *gorm.DB) *SQLCodeStore {
	return &SQLCodeStore{DB: db, Now: time.Now}
}

func (s *SQLCodeStore) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SQLCodeStore) Issue(ctx context.Context, code, gameAccountID string, _ time.Duration) error {
	_, err := repo.UpsertCode(ctx, s.DB, code, gameAccountID, s.now())
	return err
}

// Take reads the row, rejects it when past ttl, and then deletes exactly the
// generation it read. Losing a race surfaces as ok=false.
func (s *SQLCodeStore) Take(ctx context.Context, code string, ttl time.Duration) (string, bool, error) {
	rec, err := repo.GetCode(ctx, s.DB, code)
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if rec.Expired(s.now(), ttl) {
		// Expired rows are dead either way; clean up opportunistically.
		_ = repo.ConsumeCode(ctx, s.DB, rec.Code, rec.Nonce)
		return "", false, nil
	}
	if err := repo.ConsumeCode(ctx, s.DB, rec.Code, rec.Nonce); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return rec.GameAccountID, true, nil
}

func (s *SQLCodeStore) Invalidate(ctx context.Context, gameAccountID string) (int64, error) {
	return repo.DeleteCodesForAccount(ctx, s.DB, gameAccountID)
}

// Purge deletes codes older than ttl and returns how many were removed.
func (s *SQLCodeStore) Purge(ctx context.Context, ttl time.Duration) (int64, error) {
	return repo.PurgeCodesBefore(ctx, s.DB, s.now().Add(-ttl))
}
