package linkauth

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

func TestUUIDGeneratorIssuesRandomUUIDs(t *testing.T) {
	var g UUIDGenerator
	a, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	b, _ := g.NewID()
	if a == b {
		t.Fatal("ids must not repeat")
	}
	parsed, err := uuid.Parse(a)
	if err != nil {
		t.Fatalf("parse %q: %v", a, err)
	}
	if parsed.Version() != 4 {
		t.Fatalf("version = %d, want 4", parsed.Version())
	}
}

func TestULIDGeneratorUsesClockAndIsMonotonic(t *testing.T) {
	clock := newFakeClock()
	g := NewULIDGenerator(clock)

	const n = 64
	ids := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := g.NewID()
			if err != nil {
				t.Errorf("new id: %v", err)
				return
			}
			ids[i] = id
		}(i)
	}
	wg.Wait()

	seen := make(map[string]struct{}, n)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = struct{}{}

		parsed, err := ulid.Parse(id)
		if err != nil {
			t.Fatalf("parse %q: %v", id, err)
		}
		if got := ulid.Time(parsed.Time()); !got.Equal(clock.Now()) {
			t.Fatalf("ulid time = %v, want %v", got, clock.Now())
		}
	}
}

func TestManagerWithULIDSessions(t *testing.T) {
	clock := newFakeClock()
	m, err := New().
		WithConfig(testConfig(t)).
		WithStore(newMemoryStoreForTest()).
		WithClock(clock).
		WithIDGenerator(NewULIDGenerator(clock)).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()

	pair, err := m.Issue(t.Context(), "user-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := ulid.Parse(pair.AccessSessionID); err != nil {
		t.Fatalf("access session id %q is not a ulid: %v", pair.AccessSessionID, err)
	}
}

func TestClockFunc(t *testing.T) {
	at := time.Unix(1700000000, 0)
	if got := ClockFunc(func() time.Time { return at }).Now(); !got.Equal(at) {
		t.Fatalf("now = %v", got)
	}
}
