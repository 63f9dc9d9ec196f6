package rate

import (
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, cfg), mr
}

func TestLimiterBlocksAfterBudget(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 3, Window: time.Minute})
	ctx := t.Context()

	for i := 1; i <= 2; i++ {
		if err := l.Fail(ctx, "ada@example.com", ""); err != nil {
			t.Fatalf("attempt %d: %v", i, err)
		}
		if err := l.Check(ctx, "ada@example.com", ""); err != nil {
			t.Fatalf("check after %d failures: %v", i, err)
		}
	}

	if err := l.Fail(ctx, "ada@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("third failure: expected ErrRateLimited, got %v", err)
	}
	if err := l.Check(ctx, "ada@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.Check(ctx, "other@example.com", ""); err != nil {
		t.Fatalf("other identifiers must not be limited: %v", err)
	}
}

func TestLimiterWindowExpires(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 1, Window: time.Minute})
	ctx := t.Context()

	_ = l.Fail(ctx, "ada@example.com", "")
	if err := l.Check(ctx, "ada@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected limited, got %v", err)
	}
	if ttl := mr.TTL("las:rl:u:ada@example.com"); ttl != time.Minute {
		t.Fatalf("window TTL = %s", ttl)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.Check(ctx, "ada@example.com", ""); err != nil {
		t.Fatalf("expected window to reset, got %v", err)
	}
}

func TestLimiterIPThrottle(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 2, Window: time.Minute, EnableIPThrottle: true})
	ctx := t.Context()

	_ = l.Fail(ctx, "a@example.com", "10.0.0.1")
	_ = l.Fail(ctx, "b@example.com", "10.0.0.1")

	if err := l.Check(ctx, "c@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP to be limited, got %v", err)
	}
	if err := l.Check(ctx, "c@example.com", "10.0.0.2"); err != nil {
		t.Fatalf("other IP must pass: %v", err)
	}
}

func TestLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(t, Config{MaxAttempts: 5, Window: time.Minute})
	ctx := t.Context()

	_ = l.Fail(ctx, "ada@example.com", "")
	_ = l.Fail(ctx, "ada@example.com", "")
	if n, err := l.Attempts(ctx, "ada@example.com"); err != nil || n != 2 {
		t.Fatalf("attempts = %d, %v", n, err)
	}

	if err := l.Reset(ctx, "ada@example.com"); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, _ := l.Attempts(ctx, "ada@example.com"); n != 0 {
		t.Fatalf("attempts after reset = %d", n)
	}
}

func TestLimiterRedisDown(t *testing.T) {
	l, mr := newTestLimiter(t, Config{MaxAttempts: 5, Window: time.Minute})
	mr.Close()

	if err := l.Check(t.Context(), "ada@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if err := l.Fail(t.Context(), "ada@example.com", ""); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
}
