// Package services – DeliveryService
//
// DeliveryService transmits a product's payload to the chat account linked
// to a game account. Delivery never changes ownership: a failed transmission
// is reported as ErrDelivery and can be retried by delivering again.
//
// Fanout redelivers a product to all of its current owners after a file
// replacement. Recipients are processed concurrently up to a limit; each
// recipient's failure is logged and counted, never propagated.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/observability"
)

// DeliveryReason says why a payload is being sent.
type DeliveryReason string

const (
	ReasonPurchase DeliveryReason = "purchase"
	ReasonGrant    DeliveryReason = "grant"
	ReasonUpdate   DeliveryReason = "update"
)

// Parcel is what a Transport sends to one chat account.
type Parcel struct {
	ProductID   string
	ProductName string
	Description string
	FileName    string
	Data        []byte
	Reason      DeliveryReason
}

// Transport sends a parcel as a direct message to chatAccountID.
type Transport interface {
	Send(ctx context.Context, chatAccountID string, p Parcel) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, chatAccountID string, p Parcel) error

func (f TransportFunc) Send(ctx context.Context, chatAccountID string, p Parcel) error {
	return f(ctx, chatAccountID, p)
}

// ErrNoTransport is wrapped into ErrDelivery when no chat gateway runs.
var ErrNoTransport = errors.New("no chat transport configured")

// DeliveryResult describes one delivery attempt.
type DeliveryResult struct {
	GameAccountID string         `json:"userId"`
	ChatAccountID string         `json:"chatAccountId"`
	ProductID     string         `json:"productId"`
	ProductName   string         `json:"productName"`
	Reason        DeliveryReason `json:"reason"`
	Delivered     bool           `json:"delivered"`
}

// DeliveryService resolves links and hands parcels to a Transport.
type DeliveryService struct {
	Links     *LinkService
	Catalog   *CatalogService
	Transport Transport
	Audit     AuditSink
}

// Deliver sends p to the chat account linked to gameAccountID. It returns
// ErrNoLink when there is no link. Any failure after the link is resolved
// is an ErrDelivery and comes with a non-nil result (Delivered=false).
func (s *DeliveryService) Deliver(ctx context.Context, gameAccountID string, p *domain.Product, reason DeliveryReason) (*DeliveryResult, error) {
	tr := otel.Tracer("services/DeliveryService")
	ctx, span := tr.Start(ctx, "Deliver",
		trace.WithAttributes(
			attribute.String("game.account_id", gameAccountID),
			attribute.String("product.id", p.ID),
			attribute.String("delivery.reason", string(reason)),
		),
	)
	defer span.End()

	chatID, ok, err := s.Links.LookupByGameAccount(ctx, gameAccountID)
	if err != nil {
		return nil, err
	}
	if !ok {
		observability.Deliveries.WithLabelValues(string(reason), "not_linked").Inc()
		return nil, ErrNoLink
	}

	res := &DeliveryResult{
		GameAccountID: gameAccountID,
		ChatAccountID: chatID,
		ProductID:     p.ID,
		ProductName:   p.Name,
		Reason:        reason,
	}

	err = s.send(ctx, chatID, p, reason)
	lg := zerolog.Ctx(ctx).With().
		Str("game_account_id", gameAccountID).
		Str("chat_account_id", chatID).
		Str("product", p.Name).
		Str("reason", string(reason)).
		Logger()
	if err != nil {
		span.RecordError(err)
		observability.Deliveries.WithLabelValues(string(reason), "failed").Inc()
		lg.Warn().Err(err).Msg("delivery failed")
		emit(ctx, s.Audit, AuditEvent{
			Action: AuditDeliveryFailed,
			Actor:  string(reason),
			Target: gameAccountID,
			Detail: fmt.Sprintf("%s to %s: %v", p.Name, chatID, err),
		})
		return res, err
	}

	res.Delivered = true
	observability.Deliveries.WithLabelValues(string(reason), "ok").Inc()
	lg.Info().Msg("delivered")
	emit(ctx, s.Audit, AuditEvent{
		Action: AuditDelivered,
		Actor:  string(reason),
		Target: gameAccountID,
		Detail: fmt.Sprintf("%s to %s", p.Name, chatID),
	})
	return res, nil
}

func (s *DeliveryService) send(ctx context.Context, chatID string, p *domain.Product, reason DeliveryReason) error {
	if s.Transport == nil {
		return wrapKind(ErrDelivery, "send", ErrNoTransport)
	}
	data, err := s.Catalog.Payload(ctx, p)
	if err != nil {
		return wrapKind(ErrDelivery, "load payload", err)
	}
	err = s.Transport.Send(ctx, chatID, Parcel{
		ProductID:   p.ID,
		ProductName: p.Name,
		Description: p.Description,
		FileName:    p.FileName,
		Data:        data,
		Reason:      reason,
	})
	if err != nil {
		return wrapKind(ErrDelivery, "send", err)
	}
	return nil
}

// FanoutResult summarizes a redelivery to all owners.
type FanoutResult struct {
	Recipients int `json:"recipients"`
	Delivered  int `json:"delivered"`
	Failed     int `json:"failed"`
	NotLinked  int `json:"notLinked"`
}

// Fanout redelivers a product to every owner.
type Fanout struct {
	Ledger      *LedgerService
	Delivery    *DeliveryService
	Concurrency int
}

// Redeliver sends p to each current owner. It never fails; the counts say
// what happened.
func (f *Fanout) Redeliver(ctx context.Context, p *domain.Product) FanoutResult {
	lg := zerolog.Ctx(ctx)
	owners, err := f.Ledger.Owners(ctx, p.ID)
	if err != nil {
		lg.Error().Err(err).Str("product_id", p.ID).Msg("list owners for redelivery")
		return FanoutResult{}
	}

	var delivered, failed, notLinked atomic.Int64
	var g errgroup.Group
	limit := f.Concurrency
	if limit <= 0 {
		limit = 4
	}
	g.SetLimit(limit)
	for _, owner := range owners {
		g.Go(func() error {
			_, err := f.Delivery.Deliver(ctx, owner, p, ReasonUpdate)
			switch {
			case err == nil:
				delivered.Add(1)
			case errors.Is(err, ErrNotLinked):
				notLinked.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	res := FanoutResult{
		Recipients: len(owners),
		Delivered:  int(delivered.Load()),
		Failed:     int(failed.Load()),
		NotLinked:  int(notLinked.Load()),
	}
	lg.Info().
		Str("product_id", p.ID).
		Int("recipients", res.Recipients).
		Int("delivered", res.Delivered).
		Int("failed", res.Failed).
		Int("not_linked", res.NotLinked).
		Msg("redelivery finished")
	return res
}
