package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/orion-relay/internal/repo"
)

// CodePurger is implemented by code stores that need active cleanup.
type CodePurger interface {
	Purge(ctx context.Context, ttl time.Duration) (int64, error)
}

// Janitor periodically removes expired codes and idempotency records.
type Janitor struct {
	DB       *gorm.DB
	Codes    CodePurger // nil when the store expires keys itself
	CodeTTL  time.Duration
	Interval time.Duration
	Now      func() time.Time
}

// RunOnce performs one sweep and returns the number of codes and
// idempotency records removed.
func (j *Janitor) RunOnce(ctx context.Context) (codes, idem int64, err error) {
	if j.Codes != nil {
		if codes, err = j.Codes.Purge(ctx, j.CodeTTL); err != nil {
			return 0, 0, err
		}
	}
	now := time.Now()
	if j.Now != nil {
		now = j.Now()
	}
	if j.DB != nil {
		if idem, err = repo.PurgeExpiredIdempotency(ctx, j.DB, now); err != nil {
			return codes, 0, err
		}
	}
	return codes, idem, nil
}

// Run sweeps every Interval until ctx is done.
func (j *Janitor) Run(ctx context.Context) {
	interval := j.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	lg := zerolog.Ctx(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			codes, idem, err := j.RunOnce(ctx)
			if err != nil {
				lg.Warn().Err(err).Msg("janitor sweep failed")
				continue
			}
			if codes > 0 || idem > 0 {
				lg.Debug().Int64("codes", codes).Int64("idempotency", idem).Msg("janitor sweep")
			}
		}
	}
}
