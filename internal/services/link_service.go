// Package services – LinkService
//
// LinkService owns the bidirectional game account ↔ chat account mapping.
// A game account has at most one chat account; relinking overwrites it.
// Unlinking also invalidates outstanding codes for the game account so a
// stale code cannot silently re-create the link.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/repo"
)

// LinkService implements link, lookup, verify and unlink.
type LinkService struct {
	DB    *gorm.DB
	Codes *CodeService
	Audit AuditSink
}

// Link binds gameAccountID to chatAccountID, replacing any prior binding.
func (s *LinkService) Link(ctx context.Context, gameAccountID, chatAccountID string) (*domain.AccountLink, error) {
	gameAccountID = strings.TrimSpace(gameAccountID)
	chatAccountID = strings.TrimSpace(chatAccountID)
	if gameAccountID == "" || chatAccountID == "" {
		return nil, Invalidf("game account and chat account are required")
	}
	return repo.UpsertLink(ctx, s.DB, gameAccountID, chatAccountID)
}

// Verify exchanges code from chatAccountID and links the resulting game
// account to it.
func (s *LinkService) Verify(ctx context.Context, code, chatAccountID string) (*domain.AccountLink, error) {
	tr := otel.Tracer("services/LinkService")
	ctx, span := tr.Start(ctx, "Verify",
		trace.WithAttributes(attribute.String("chat.account_id", chatAccountID)),
	)
	defer span.End()

	g, err := s.Codes.Exchange(ctx, code, chatAccountID)
	if err != nil {
		return nil, err
	}
	l, err := s.Link(ctx, g, chatAccountID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("game_account_id", g).
		Str("chat_account_id", chatAccountID).
		Msg("account linked")
	emit(ctx, s.Audit, AuditEvent{
		Action: AuditVerified,
		Actor:  chatAccountID,
		Target: g,
	})
	return l, nil
}

// LookupByGameAccount returns the chat account linked to gameAccountID.
// ok is false when there is no link.
func (s *LinkService) LookupByGameAccount(ctx context.Context, gameAccountID string) (string, bool, error) {
	l, err := repo.GetLinkByGameAccount(ctx, s.DB, strings.TrimSpace(gameAccountID))
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return l.ChatAccountID, true, nil
}

// LookupByChatAccount returns the game account linked to chatAccountID.
func (s *LinkService) LookupByChatAccount(ctx context.Context, chatAccountID string) (string, bool, error) {
	l, err := repo.GetLinkByChatAccount(ctx, s.DB, strings.TrimSpace(chatAccountID))
	if errors.Is(err, repo.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return l.GameAccountID, true, nil
}

// Unlink removes the link for gameAccountID and invalidates its outstanding
// codes. It reports whether a link existed. Codes are invalidated even when
// no link existed.
func (s *LinkService) Unlink(ctx context.Context, gameAccountID, actor string) (bool, error) {
	gameAccountID = strings.TrimSpace(gameAccountID)
	if gameAccountID == "" {
		return false, Invalidf("game account is required")
	}
	existed, err := repo.DeleteLink(ctx, s.DB, gameAccountID)
	if err != nil {
		return false, err
	}
	if s.Codes != nil {
		if _, err := s.Codes.Invalidate(ctx, gameAccountID); err != nil {
			return existed, err
		}
	}
	emit(ctx, s.Audit, AuditEvent{
		Action: AuditUnlinked,
		Actor:  actor,
		Target: gameAccountID,
	})
	return existed, nil
}
