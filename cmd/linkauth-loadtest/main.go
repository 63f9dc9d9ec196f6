// Command linkauth-loadtest measures verify and refresh throughput of a
// session manager against Redis, or an embedded miniredis when no address
// is given.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	mathrand "math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/linkauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type userState struct {
	userID  string
	access  string
	refresh string
	mu      sync.Mutex
}

func main() {
	var (
		users       = pflag.Int("users", 10000, "number of users to log in before the run")
		concurrency = pflag.Int("concurrency", 256, "number of concurrent workers")
		ops         = pflag.Int("ops", 100000, "operations per phase (verify + refresh)")
		redisAddr   = pflag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = pflag.String("prefix", "las", "session key prefix")
		ulids       = pflag.Bool("ulid", false, "use ULID session ids instead of UUIDs")
	)
	pflag.Parse()

	if *users <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "users, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	manager, err := buildManager(client, *prefix, *ulids)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build manager: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	states := make([]userState, *users)
	fmt.Printf("issuing sessions for %d users...\n", *users)
	startSeed := time.Now()
	for i := range states {
		userID := fmt.Sprintf("user-%d", i)
		pair, err := manager.Issue(ctx, userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "issue failed: %v\n", err)
			os.Exit(1)
		}
		states[i].userID = userID
		states[i].access = pair.AccessToken
		states[i].refresh = pair.RefreshToken
	}
	fmt.Printf("issued in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runPhase(*ops, *concurrency, 7919, func(r *mathrand.Rand) (time.Duration, error) {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		token := state.access
		state.mu.Unlock()

		t0 := time.Now()
		_, err := manager.VerifySession(ctx, token, linkauth.AccessToken)
		return time.Since(t0), err
	})

	refreshStats := runPhase(*ops, *concurrency, 6151, func(r *mathrand.Rand) (time.Duration, error) {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()

		t0 := time.Now()
		pair, err := manager.Refresh(ctx, state.refresh)
		d := time.Since(t0)
		if err == nil {
			state.access = pair.AccessToken
			state.refresh = pair.RefreshToken
		}
		return d, err
	})

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("refresh", refreshStats)

	snap := manager.MetricsSnapshot()
	fmt.Printf("counters: verify_failure=%d refresh_consumed=%d store_unavailable=%d\n",
		snap.Counters[linkauth.MetricVerifyFailure],
		snap.Counters[linkauth.MetricRefreshConsumed],
		snap.Counters[linkauth.MetricStoreUnavailable],
	)
}

func buildManager(client redis.UniversalClient, prefix string, ulids bool) (*linkauth.Manager, error) {
	access, err := edKeys(15 * time.Minute)
	if err != nil {
		return nil, err
	}
	refresh, err := edKeys(24 * time.Hour)
	if err != nil {
		return nil, err
	}

	cfg := linkauth.DefaultConfig()
	cfg.Access = access
	cfg.Refresh = refresh
	cfg.Session.RedisPrefix = prefix
	cfg.Metrics.EnableLatencyHistograms = true

	b := linkauth.New().WithConfig(cfg).WithRedis(client)
	if ulids {
		b = b.WithIDGenerator(linkauth.NewULIDGenerator(linkauth.SystemClock{}))
	}
	return b.Build()
}

func edKeys(maxAge time.Duration) (linkauth.TokenConfig, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return linkauth.TokenConfig{}, err
	}
	return linkauth.TokenConfig{
		SigningMethod: "ed25519",
		PrivateKey:    priv,
		PublicKey:     pub,
		MaxAge:        maxAge,
	}, nil
}

// runPhase spreads ops calls of op across concurrency workers.
func runPhase(ops, concurrency int, seed int64, op func(r *mathrand.Rand) (time.Duration, error)) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := mathrand.New(mathrand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				if int(atomic.AddInt64(&cursor, 1)) > ops {
					return
				}
				d, err := op(r)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
