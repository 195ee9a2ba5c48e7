// Package services – DowntimeService
//
// The downtime flag is a single global boolean the game polls to enter a
// maintenance state. Writes are last-writer-wins. Every successful write is
// then broadcast to the game backend; a failed broadcast is logged and
// counted but never fails the write, because the stored flag is what the
// game reads back.
package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/domain"
	"github.com/tbourn/orion-relay/internal/observability"
	"github.com/tbourn/orion-relay/internal/repo"
)

// Broadcaster notifies the game backend of a downtime change.
type Broadcaster interface {
	PublishDowntime(ctx context.Context, enabled bool, updatedBy string) error
}

// DowntimeService reads and writes the global flag.
type DowntimeService struct {
	DB          *gorm.DB
	Broadcaster Broadcaster
	Audit       AuditSink

	// BroadcastTimeout bounds the notification; 0 means 5s.
	BroadcastTimeout time.Duration
}

// Get returns the current flag, false when it was never written.
func (s *DowntimeService) Get(ctx context.Context) (bool, error) {
	f, err := s.State(ctx)
	if err != nil {
		return false, err
	}
	return f.Enabled, nil
}

// State returns the full flag row; a zero row when it was never written.
func (s *DowntimeService) State(ctx context.Context) (*domain.DowntimeFlag, error) {
	f, err := repo.GetDowntime(ctx, s.DB)
	if errors.Is(err, repo.ErrNotFound) {
		return &domain.DowntimeFlag{Key: domain.DowntimeKey}, nil
	}
	return f, err
}

// Set stores enabled and returns the stored value. The broadcast runs after
// the write, with its own timeout, on a context detached from cancellation
// of ctx.
func (s *DowntimeService) Set(ctx context.Context, enabled bool, updatedBy string) (bool, error) {
	f, err := repo.UpsertDowntime(ctx, s.DB, enabled, updatedBy)
	if err != nil {
		return false, err
	}
	lg := zerolog.Ctx(ctx)
	lg.Info().Bool("enabled", f.Enabled).Str("updated_by", updatedBy).Msg("downtime set")
	emit(ctx, s.Audit, AuditEvent{
		Action: AuditDowntimeChanged,
		Actor:  updatedBy,
		Target: domain.DowntimeKey,
		Detail: strconv.FormatBool(f.Enabled),
	})

	if err := s.broadcast(ctx, f.Enabled, updatedBy); err != nil {
		lg.Warn().Err(err).Msg("downtime broadcast failed")
	}
	return f.Enabled, nil
}

func (s *DowntimeService) broadcast(ctx context.Context, enabled bool, updatedBy string) error {
	if s.Broadcaster == nil {
		return nil
	}
	timeout := s.BroadcastTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.Broadcaster.PublishDowntime(bctx, enabled, updatedBy); err != nil {
		observability.Broadcasts.WithLabelValues("failed").Inc()
		return wrapKind(ErrUpstream, "broadcast downtime", err)
	}
	observability.Broadcasts.WithLabelValues("ok").Inc()
	return nil
}
