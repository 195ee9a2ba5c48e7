// Package cache holds Redis-backed stores.
//
// RedisCodeStore keeps verification codes as plain string keys with a TTL,
// so expiry is enforced by Redis itself. Every command and script names the
// keys it touches, so the store also runs against a Redis Cluster. Consumption uses GETDEL, which
// makes single use atomic: when two exchanges race on one code, exactly one
// GETDEL returns the value.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps connectivity failures reported by NewRedisClient.
var ErrUnavailable = errors.New("redis unavailable")

// delIfOwnerScript deletes KEYS[1] only while it still maps to ARGV[1]. It
// touches one key, so it is safe on a cluster.
var delIfOwnerScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCodeStore implements the code store contract on Redis.
type RedisCodeStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCodeStore returns a store using prefix for all keys ("codes" when
// empty).
func NewRedisCodeStore(client redis.UniversalClient, prefix string) *RedisCodeStore {
	if prefix == "" {
		prefix = "codes"
	}
	return &RedisCodeStore{client: client, prefix: prefix}
}

// NewRedisClient parses url and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opts)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return c, nil
}

func (s *RedisCodeStore) codeKey(code string) string { return s.prefix + ":code:" + code }

func (s *RedisCodeStore) accountKey(gameAccountID string) string {
	return s.prefix + ":acct:" + gameAccountID
}

// Issue stores code for gameAccountID, overwriting any previous owner. A ttl
// of zero stores the code without expiry. The code and account keys live in
// different slots, so they are pipelined rather than wrapped in MULTI.
func (s *RedisCodeStore) Issue(ctx context.Context, code, gameAccountID string, ttl time.Duration) error {
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.codeKey(code), gameAccountID, ttl)
		p.SAdd(ctx, s.accountKey(gameAccountID), code)
		if ttl > 0 {
			p.Expire(ctx, s.accountKey(gameAccountID), ttl)
		}
		return nil
	})
	return err
}

// Take atomically removes code and returns its game account. ok is false
// when the code is unknown, expired, or already consumed.
func (s *RedisCodeStore) Take(ctx context.Context, code string, _ time.Duration) (string, bool, error) {
	v, err := s.client.GetDel(ctx, s.codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Invalidate deletes every outstanding code still owned by gameAccountID.
// Codes reissued to another account since are left alone.
func (s *RedisCodeStore) Invalidate(ctx context.Context, gameAccountID string) (int64, error) {
	index := s.accountKey(gameAccountID)
	codes, err := s.client.SMembers(ctx, index).Result()
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, code := range codes {
		n, err := delIfOwnerScript.Run(ctx, s.client, []string{s.codeKey(code)}, gameAccountID).Int64()
		if err != nil {
			return removed, err
		}
		removed += n
	}
	if err := s.client.Del(ctx, index).Err(); err != nil {
		return removed, err
	}
	return removed, nil
}
