// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header on unsafe requests and
// records what the handler needs to serve a replay: the key, its scope
// ("POST /purchase") and whether a stored response already exists. The
// middleware never writes the cached body itself; the Purchase handler does that
// so it can add Idempotency-Replayed.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's idempotency key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemScope  = "idem.scope"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"

	defaultIdemMaxLen = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key and whether one was sent.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s, _ := c.Value(ctxKeyIdemKey).(string)
	return s, s != ""
}

// GetIdempotencyScope returns the namespace the key is stored under. Keys
// never collide across scopes.
func GetIdempotencyScope(c *gin.Context) string {
	if s, _ := c.Value(ctxKeyIdemScope).(string); s != "" {
		return s
	}
	return DefaultIdempotencyScope(c)
}

// DefaultIdempotencyScope is the method and route pattern, for example
// "POST /purchase".
func DefaultIdempotencyScope(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}
	route := c.FullPath()
	if route == "" && c.Request.URL != nil {
		route = c.Request.URL.Path
	}
	return c.Request.Method + " " + route
}

// IsReplay reports whether a stored response exists for this request's key.
func IsReplay(c *gin.Context) bool {
	b, _ := c.Value(ctxKeyIdemReplay).(bool)
	return b
}

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	MaxLen  int                         // default 200
	Pattern *regexp.Regexp              // default ^[A-Za-z0-9._~\-:]+$
	Scope   func(c *gin.Context) string // default DefaultIdempotencyScope
}

// IdempotencyLookup reports whether an unexpired response is stored for
// (scope, key). Errors are logged and treated as a miss.
type IdempotencyLookup func(ctx context.Context, scope, key string, now time.Time) (exists bool, err error)

func unsafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// IdempotencyValidator rejects malformed keys with 400 bad_idempotency_key.
// Keys on GET, HEAD and OPTIONS are ignored. On a lookup hit the request is
// marked as a replay and exempted from rate limiting.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}
	scopeOf := opts.Scope
	if scopeOf == nil {
		scopeOf = DefaultIdempotencyScope
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || !unsafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			deny(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}

		scope := scopeOf(c)
		c.Set(ctxKeyIdemKey, key)
		c.Set(ctxKeyIdemScope, scope)

		if lookup != nil {
			exists, err := lookup(c.Request.Context(), scope, key, time.Now().UTC())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Str("scope", scope).Msg("idempotency lookup failed")
			case exists:
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Next()
	}
}
