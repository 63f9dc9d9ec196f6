package linkauth

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/linkauth/session"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func edTokenConfig(t testing.TB, maxAge time.Duration) TokenConfig {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return TokenConfig{
		SigningMethod: "ed25519",
		PrivateKey:    priv,
		PublicKey:     pub,
		MaxAge:        maxAge,
	}
}

var (
	rsaOnce sync.Once
	rsaPriv []byte
	rsaPub  []byte
	rsaErr  error
)

func rsaTokenConfig(t testing.TB, maxAge time.Duration) TokenConfig {
	t.Helper()
	rsaOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			rsaErr = err
			return
		}
		pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			rsaErr = err
			return
		}
		rsaPriv = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
		rsaPub = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	})
	if rsaErr != nil {
		t.Fatalf("generate rsa key: %v", rsaErr)
	}
	return TokenConfig{
		SigningMethod: "rs256",
		PrivateKey:    rsaPriv,
		PublicKey:     rsaPub,
		MaxAge:        maxAge,
	}
}

func testConfig(t testing.TB) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Access = edTokenConfig(t, 15*time.Minute)
	cfg.Refresh = edTokenConfig(t, 7*24*time.Hour)
	return cfg
}

type testEnv struct {
	manager *Manager
	mr      *miniredis.Miniredis
	rdb     *redis.Client
	clock   *fakeClock
}

func (e *testEnv) key(sessionID string) string {
	return session.DefaultKeyPrefix + ":" + sessionID
}

func newTestManager(t *testing.T, mutate func(*Config)) *testEnv {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})

	cfg := testConfig(t)
	if mutate != nil {
		mutate(&cfg)
	}
	clock := newFakeClock()

	m, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithClock(clock).
		Build()
	if err != nil {
		t.Fatalf("build manager: %v", err)
	}

	t.Cleanup(func() {
		m.Close()
		_ = rdb.Close()
		mr.Close()
	})
	return &testEnv{manager: m, mr: mr, rdb: rdb, clock: clock}
}

// flakyStore fails the Nth Put (1-based) and delegates everything else.
type flakyStore struct {
	*session.MemoryStore
	mu      sync.Mutex
	puts    int
	failPut int
}

func (s *flakyStore) Put(ctx context.Context, sessionID, userID string, ttlSeconds int64) error {
	s.mu.Lock()
	s.puts++
	n := s.puts
	s.mu.Unlock()
	if n == s.failPut {
		return errInjectedOutage
	}
	return s.MemoryStore.Put(ctx, sessionID, userID, ttlSeconds)
}

// stallingStore blocks Get and DeleteMany until the caller's deadline and
// reports the bare context error, as a store without its own wrapping would.
type stallingStore struct {
	*session.MemoryStore
	stall atomic.Bool
}

func (s *stallingStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	if s.stall.Load() {
		<-ctx.Done()
		return "", false, ctx.Err()
	}
	return s.MemoryStore.Get(ctx, sessionID)
}

func (s *stallingStore) DeleteMany(ctx context.Context, sessionIDs ...string) (int64, error) {
	if s.stall.Load() {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return s.MemoryStore.DeleteMany(ctx, sessionIDs...)
}

var errInjectedOutage = fmt.Errorf("%w: injected outage", session.ErrStoreUnavailable)

func newMemoryStoreForTest() *session.MemoryStore {
	return session.NewMemoryStore(time.Now)
}
