package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeBroadcaster struct {
	calls    []bool
	err      error
	deadline bool
}

func (f *fakeBroadcaster) PublishDowntime(ctx context.Context, enabled bool, _ string) error {
	f.calls = append(f.calls, enabled)
	_, f.deadline = ctx.Deadline()
	return f.err
}

func TestDowntime_DefaultAndLastWriterWins(t *testing.T) {
	db := newServiceDB(t)
	b := &fakeBroadcaster{}
	audit := &recordingAudit{}
	s := &DowntimeService{DB: db, Broadcaster: b, Audit: audit}
	ctx := context.Background()

	on, err := s.Get(ctx)
	if err != nil || on {
		t.Fatalf("default should be false: %v %v", on, err)
	}

	if got, err := s.Set(ctx, true, "admin"); err != nil || !got {
		t.Fatalf("Set(true): %v %v", got, err)
	}
	if on, _ := s.Get(ctx); !on {
		t.Fatalf("expected true after Set(true)")
	}
	if got, err := s.Set(ctx, false, "other"); err != nil || got {
		t.Fatalf("Set(false): %v %v", got, err)
	}
	st, err := s.State(ctx)
	if err != nil || st.Enabled || st.UpdatedBy != "other" {
		t.Fatalf("unexpected state %+v err=%v", st, err)
	}

	if len(b.calls) != 2 || !b.calls[0] || b.calls[1] {
		t.Fatalf("expected broadcasts [true false], got %v", b.calls)
	}
	if !b.deadline {
		t.Fatalf("broadcast should run with a deadline")
	}
	if acts := audit.actions(); len(acts) != 2 || acts[0] != AuditDowntimeChanged {
		t.Fatalf("unexpected audit %v", acts)
	}
}

func TestDowntime_BroadcastFailureDoesNotFailSet(t *testing.T) {
	db := newServiceDB(t)
	b := &fakeBroadcaster{err: errors.New("503")}
	s := &DowntimeService{DB: db, Broadcaster: b, BroadcastTimeout: time.Second}
	ctx := context.Background()

	got, err := s.Set(ctx, true, "admin")
	if err != nil || !got {
		t.Fatalf("Set should succeed: %v %v", got, err)
	}
	if on, _ := s.Get(ctx); !on {
		t.Fatalf("flag should be stored despite broadcast failure")
	}
	if err := s.broadcast(ctx, true, "admin"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestDowntime_BroadcastSurvivesCanceledCaller(t *testing.T) {
	db := newServiceDB(t)
	var sawErr error
	s := &DowntimeService{DB: db}
	s.Broadcaster = broadcasterFunc(func(ctx context.Context, _ bool, _ string) error {
		sawErr = ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.broadcast(ctx, true, "admin"); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	cancel()
	if err := s.broadcast(ctx, false, "admin"); err != nil {
		t.Fatalf("broadcast after cancel: %v", err)
	}
	if sawErr != nil {
		t.Fatalf("broadcast context should be detached, got %v", sawErr)
	}
}

type broadcasterFunc func(ctx context.Context, enabled bool, updatedBy string) error

func (f broadcasterFunc) PublishDowntime(ctx context.Context, enabled bool, updatedBy string) error {
	return f(ctx, enabled, updatedBy)
}
