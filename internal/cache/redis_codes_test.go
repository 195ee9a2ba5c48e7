package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newCodeStoreForTest(t *testing.T) (*miniredis.Miniredis, *RedisCodeStore) {
	t.Helper()
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		m.Close()
	})
	return m, NewRedisCodeStore(client, "test")
}

func TestRedisCodeStore_IssueTakeSingleUse(t *testing.T) {
	_, s := newCodeStoreForTest(t)
	ctx := context.Background()

	if err := s.Issue(ctx, "482913", "500100", time.Minute); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	acct, ok, err := s.Take(ctx, "482913", time.Minute)
	if err != nil || !ok || acct != "500100" {
		t.Fatalf("Take: acct=%q ok=%v err=%v", acct, ok, err)
	}
	if _, ok, err := s.Take(ctx, "482913", time.Minute); err != nil || ok {
		t.Fatalf("second Take should miss: ok=%v err=%v", ok, err)
	}
}

func TestRedisCodeStore_Expiry(t *testing.T) {
	m, s := newCodeStoreForTest(t)
	ctx := context.Background()

	if err := s.Issue(ctx, "111111", "1", 10*time.Minute); err != nil {
		t.Fatalf("Issue: %v", err)
	}
	m.FastForward(11 * time.Minute)
	if _, ok, _ := s.Take(ctx, "111111", 10*time.Minute); ok {
		t.Fatalf("expired code must not be exchangeable")
	}
}

func TestRedisCodeStore_ReissueOverwritesOwner(t *testing.T) {
	_, s := newCodeStoreForTest(t)
	ctx := context.Background()

	_ = s.Issue(ctx, "222222", "A", time.Minute)
	_ = s.Issue(ctx, "222222", "B", time.Minute)

	// Invalidating the previous owner must not remove the reissued code.
	n, err := s.Invalidate(ctx, "A")
	if err != nil || n != 0 {
		t.Fatalf("Invalidate A: n=%d err=%v", n, err)
	}
	acct, ok, _ := s.Take(ctx, "222222", time.Minute)
	if !ok || acct != "B" {
		t.Fatalf("expected code owned by B, got %q ok=%v", acct, ok)
	}
}

func TestRedisCodeStore_Invalidate(t *testing.T) {
	_, s := newCodeStoreForTest(t)
	ctx := context.Background()

	_ = s.Issue(ctx, "100001", "500100", time.Minute)
	_ = s.Issue(ctx, "100002", "500100", time.Minute)
	_ = s.Issue(ctx, "100003", "500200", time.Minute)

	n, err := s.Invalidate(ctx, "500100")
	if err != nil || n != 2 {
		t.Fatalf("Invalidate: n=%d err=%v", n, err)
	}
	if _, ok, _ := s.Take(ctx, "100001", time.Minute); ok {
		t.Fatalf("invalidated code still present")
	}
	if _, ok, _ := s.Take(ctx, "100003", time.Minute); !ok {
		t.Fatalf("other account's code should survive")
	}
}

func TestRedisCodeStore_ConcurrentTakeSingleWinner(t *testing.T) {
	_, s := newCodeStoreForTest(t)
	ctx := context.Background()
	_ = s.Issue(ctx, "333333", "500100", time.Minute)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := s.Take(ctx, "333333", time.Minute); err == nil && ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected one winner, got %d", wins)
	}
}

func TestNewRedisClient_BadURL(t *testing.T) {
	if _, err := NewRedisClient(context.Background(), "://nope"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestNewRedisClient_Ping(t *testing.T) {
	m := miniredis.RunT(t)
	c, err := NewRedisClient(context.Background(), "redis://"+m.Addr())
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	_ = c.Close()
}

type scriptRecorder struct {
	mu    sync.Mutex
	evals [][]any
}

func (r *scriptRecorder) DialHook(next redis.DialHook) redis.DialHook { return next }

func (r *scriptRecorder) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if name := cmd.Name(); name == "eval" || name == "evalsha" {
			r.mu.Lock()
			r.evals = append(r.evals, cmd.Args())
			r.mu.Unlock()
		}
		return next(ctx, cmd)
	}
}

func (r *scriptRecorder) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisCodeStore_InvalidateDeclaresScriptKeys(t *testing.T) {
	m := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: m.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	rec := &scriptRecorder{}
	client.AddHook(rec)
	s := NewRedisCodeStore(client, "test")
	ctx := context.Background()

	_ = s.Issue(ctx, "300001", "500100", time.Minute)
	_ = s.Issue(ctx, "300002", "500100", time.Minute)

	n, err := s.Invalidate(ctx, "500100")
	if err != nil || n != 2 {
		t.Fatalf("Invalidate: n=%d err=%v", n, err)
	}
	if m.Exists("test:acct:500100") {
		t.Fatalf("account index should be dropped")
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.evals) == 0 {
		t.Fatalf("expected script calls")
	}
	for _, args := range rec.evals {
		// eval|evalsha, script|sha, numkeys, key, argv...
		if len(args) < 5 || fmt.Sprint(args[2]) != "1" {
			t.Fatalf("script must declare exactly one key: %v", args)
		}
		key := fmt.Sprint(args[3])
		if key != "test:code:300001" && key != "test:code:300002" {
			t.Fatalf("script touched undeclared key layout: %v", args)
		}
	}
}
