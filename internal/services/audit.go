package services

import (
	"context"
	"time"
)

// Audit actions posted to the log sink.
const (
	AuditVerified        = "verified"
	AuditUnlinked        = "unlinked"
	AuditProductAdded    = "product_added"
	AuditProductRemoved  = "product_removed"
	AuditProductEdited   = "product_edited"
	AuditGranted         = "granted"
	AuditRevoked         = "revoked"
	AuditDelivered       = "delivered"
	AuditDeliveryFailed  = "delivery_failed"
	AuditDowntimeChanged = "downtime_changed"
)

// AuditEvent is one administrative or delivery event.
type AuditEvent struct {
	Action string
	Actor  string // who triggered it (chat account, "api", "game")
	Target string // game account or product id
	Detail string
	At     time.Time
}

// AuditSink receives audit events. Implementations must not block for long;
// failures are theirs to log.
type AuditSink interface {
	Audit(ctx context.Context, e AuditEvent)
}

// emit forwards e to sink when one is configured.
func emit(ctx context.Context, sink AuditSink, e AuditEvent) {
	if sink == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	sink.Audit(ctx, e)
}

// AuditFunc adapts a function to AuditSink.
type AuditFunc func(ctx context.Context, e AuditEvent)

func (f AuditFunc) Audit(ctx context.Context, e AuditEvent) { f(ctx, e) }

// MultiAudit fans an event out to several sinks.
type MultiAudit []AuditSink

func (m MultiAudit) Audit(ctx context.Context, e AuditEvent) {
	for _, s := range m {
		if s != nil {
			s.Audit(ctx, e)
		}
	}
}
