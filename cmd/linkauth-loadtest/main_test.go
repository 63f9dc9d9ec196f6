package main

import (
	"context"
	mathrand "math/rand"
	"testing"
	"time"

	"github.com/MrEthical07/linkauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestPercentile(t *testing.T) {
	samples := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	cases := map[int]time.Duration{0: 1, 50: 5, 95: 9, 100: 10}
	for p, want := range cases {
		if got := percentile(samples, p); got != want {
			t.Fatalf("percentile(%d)=%v want %v", p, got, want)
		}
	}
	if got := percentile(nil, 50); got != 0 {
		t.Fatalf("empty percentile = %v", got)
	}
}

func TestRunPhaseCountsEveryOp(t *testing.T) {
	stats := runPhase(100, 8, 1, func(_ *mathrand.Rand) (time.Duration, error) {
		return time.Microsecond, nil
	})
	if stats.ops != 100 || stats.failures != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestBuildManagerRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	m, err := buildManager(client, "lt", true)
	if err != nil {
		t.Fatalf("buildManager: %v", err)
	}
	t.Cleanup(m.Close)

	ctx := context.Background()
	pair, err := m.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !mr.Exists("lt:" + pair.AccessSessionID) {
		t.Fatalf("expected session under custom prefix, keys=%v", mr.Keys())
	}
	if _, err := m.Verify(ctx, pair.AccessToken, linkauth.AccessToken); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}
