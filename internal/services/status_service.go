// Package services – StatusService
//
// StatusService tracks bot liveness from heartbeats. The bot is online while
// its last heartbeat is younger than Timeout; the first observation past the
// timeout records lastOffline. State is in-process only.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tbourn/orion-relay/internal/observability"
)

// DefaultHeartbeatTimeout is the silence after which the bot is offline.
const DefaultHeartbeatTimeout = 10 * time.Second

// Heartbeat is one liveness report from the bot.
type Heartbeat struct {
	PingMS        int64  `json:"ping"`
	UptimeSeconds int64  `json:"uptime"`
	Version       string `json:"version,omitempty"`
}

// StatusSnapshot is the liveness view returned by GET /status.
type StatusSnapshot struct {
	Online        bool       `json:"online"`
	Ping          int64      `json:"ping"`
	Uptime        int64      `json:"uptime"`
	Version       string     `json:"version"`
	LastHeartbeat *time.Time `json:"lastHeartbeat"`
	LastOffline   *time.Time `json:"lastOffline"`
}

// StatusService is safe for concurrent use.
type StatusService struct {
	Timeout time.Duration
	Now     func() time.Time

	mu          sync.Mutex
	last        Heartbeat
	lastAt      time.Time
	lastOffline time.Time
	online      bool
}

// NewStatusService returns a service reporting version until the first
// heartbeat carries one.
func NewStatusService(timeout time.Duration, version string) *StatusService {
	if timeout <= 0 {
		timeout = DefaultHeartbeatTimeout
	}
	return &StatusService{Timeout: timeout, Now: time.Now, last: Heartbeat{Version: version}}
}

func (s *StatusService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Beat records hb as the latest heartbeat.
func (s *StatusService) Beat(hb Heartbeat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if hb.Version == "" {
		hb.Version = s.last.Version
	}
	s.last = hb
	s.lastAt = s.now()
	s.online = true
	observability.BotOnline.Set(1)
}

// Snapshot evaluates the timeout and returns the current view.
func (s *StatusService) Snapshot() StatusSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluateLocked(s.now())

	snap := StatusSnapshot{
		Online:  s.online,
		Ping:    s.last.PingMS,
		Uptime:  s.last.UptimeSeconds,
		Version: s.last.Version,
	}
	if !s.lastAt.IsZero() {
		t := s.lastAt
		snap.LastHeartbeat = &t
	}
	if !s.lastOffline.IsZero() {
		t := s.lastOffline
		snap.LastOffline = &t
	}
	return snap
}

// LastOffline returns when the bot was last observed going offline.
func (s *StatusService) LastOffline() *time.Time {
	return s.Snapshot().LastOffline
}

func (s *StatusService) evaluateLocked(now time.Time) {
	if s.online && now.Sub(s.lastAt) > s.Timeout {
		s.online = false
		s.lastOffline = now
		observability.BotOnline.Set(0)
	}
}

// Watch re-evaluates liveness every interval until ctx ends, so offline
// transitions are logged even when nobody polls GET /status.
func (s *StatusService) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.Timeout / 2
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	lg := zerolog.Ctx(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.mu.Lock()
			was := s.online
			s.evaluateLocked(s.now())
			went := was && !s.online
			s.mu.Unlock()
			if went {
				lg.Warn().Dur("timeout", s.Timeout).Msg("bot heartbeat lost")
			}
		}
	}
}
