// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the two static shared-key gates of the API:
//   - AdminKey guards admin writes (catalog edits, downtime, heartbeats) with
//     the X-Admin-Key header.
//   - GameKey guards game-facing endpoints with the X-Api-Key header when a
//     game key is configured; with no key configured it lets every request in.
//
// Both record the authenticated caller in the Gin context (see CallerFrom),
// which the rate limiter uses for its bucket key.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderAdminKey carries the admin key.
	HeaderAdminKey = "X-Admin-Key"
	// HeaderGameKey carries the game server key.
	HeaderGameKey = "X-Api-Key"

	// CallerAdmin and CallerGame are the caller identities set on success.
	CallerAdmin = "admin"
	CallerGame  = "game"

	callerKey = "caller"
)

// CallerFrom returns the caller identity recorded by AdminKey or GameKey,
// or "" for anonymous requests.
func CallerFrom(c *gin.Context) string {
	if v, ok := c.Get(callerKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// AdminKey rejects requests whose X-Admin-Key does not equal key. An empty
// key rejects every request, so admin routes stay closed until configured.
func AdminKey(key string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	return func(c *gin.Context) {
		if key == "" {
			deny(c, http.StatusForbidden, "forbidden", "admin access is not configured")
			return
		}
		if !keyMatches(c.GetHeader(HeaderAdminKey), key) {
			deny(c, http.StatusUnauthorized, "unauthorized", "missing or invalid admin key")
			return
		}
		c.Set(callerKey, CallerAdmin)
		c.Next()
	}
}

// GameKey rejects requests whose X-Api-Key does not equal key. An empty key
// disables the check. A valid admin key is accepted as well.
func GameKey(key, adminKey string) gin.HandlerFunc {
	key = strings.TrimSpace(key)
	adminKey = strings.TrimSpace(adminKey)
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		switch {
		case keyMatches(c.GetHeader(HeaderGameKey), key):
			c.Set(callerKey, CallerGame)
		case adminKey != "" && keyMatches(c.GetHeader(HeaderAdminKey), adminKey):
			c.Set(callerKey, CallerAdmin)
		default:
			deny(c, http.StatusUnauthorized, "unauthorized", "missing or invalid api key")
			return
		}
		c.Next()
	}
}

func keyMatches(got, want string) bool {
	got = strings.TrimSpace(got)
	if got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func deny(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}
