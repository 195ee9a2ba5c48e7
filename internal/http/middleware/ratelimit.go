// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the per-caller token-bucket limiter mounted on the
// game and admin route groups. It runs after the key gates, so a bucket is
// keyed by caller class and client IP ("game:203.0.113.7"). Idempotent
// replays flagged by IdempotencyValidator skip the limiter entirely.
//
// Buckets live in process memory. Several relay replicas each apply the
// full budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc selects the identity used to key a bucket.
type keyFunc func(*gin.Context) string

// KeyByCallerOrIP keys by the caller recorded by GameKey or AdminKey plus the
// client IP, or by IP alone for anonymous callers. Game servers share a few
// egress IPs, so each server address gets its own bucket.
func KeyByCallerOrIP() keyFunc {
	return func(c *gin.Context) string {
		if caller := CallerFrom(c); caller != "" {
			return caller + ":" + c.ClientIP()
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimiter hands out one token bucket per key. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	idle    time.Duration // buckets unused this long are dropped
	sweepAt int           // lookups between sweeps
	lookups int
}

// NewRateLimiter returns a limiter refilling rps tokens per second up to
// burst. burst <= 0 becomes 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByCallerOrIP()
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		idle:    10 * time.Minute,
		sweepAt: 5000,
	}
}

// limiter returns the bucket for key, creating it on first use. Every
// sweepAt lookups idle buckets are dropped first, so a stale bucket for key
// is replaced rather than refreshed.
func (rl *RateLimiter) limiter(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= rl.sweepAt {
		rl.sweepLocked(now)
		rl.lookups = 0
	}
	if b, ok := rl.buckets[key]; ok {
		b.seen = now
		return b.lim
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{lim: lim, seen: now}
	return lim
}

func (rl *RateLimiter) sweepLocked(now time.Time) {
	for k, b := range rl.buckets {
		if now.Sub(b.seen) >= rl.idle {
			delete(rl.buckets, k)
		}
	}
}

// Len returns the number of live buckets.
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay.
func IsRateBypass(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyRateBypass).(bool)
	return b
}

// retryAfter is the whole seconds until lim has a token again, at least 1.
func retryAfter(lim *rate.Limiter, now time.Time) int {
	r := lim.ReserveN(now, 1)
	if !r.OK() {
		return 1
	}
	d := r.DelayFrom(now)
	r.CancelAt(now)
	if s := int(math.Ceil(d.Seconds())); s > 1 {
		return s
	}
	return 1
}

// Handler enforces the limit. Rejected requests get 429 with Retry-After
// and the standard error envelope, code "too_many_requests".
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		now := rl.now()
		lim := rl.limiter(rl.keyFn(c), now)
		if lim.AllowN(now, 1) {
			c.Next()
			return
		}

		caller := CallerFrom(c)
		if caller == "" {
			caller = "anonymous"
		}
		httpRateLimited.WithLabelValues(caller).Inc()

		c.Header("Retry-After", strconv.Itoa(retryAfter(lim, now)))
		deny(c, http.StatusTooManyRequests, "too_many_requests", "rate limit exceeded")
	}
}
