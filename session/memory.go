package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryStore is an in-process [Store]. Entries expire lazily against
// the injected clock.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty store. now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     now,
	}
}

// Put implements [Store].
func (s *MemoryStore) Put(ctx context.Context, sessionID, userID string, ttlSeconds int64) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	if err := validatePut(sessionID, userID, ttlSeconds); err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[sessionID] = memoryEntry{
		userID:    userID,
		expiresAt: s.now().Add(time.Duration(ttlSeconds) * time.Second),
	}
	s.mu.Unlock()
	return nil
}

// Get implements [Store].
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, unavailable(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(sessionID)
	if !ok {
		return "", false, nil
	}
	return e.userID, true, nil
}

// DeleteMany implements [Store].
func (s *MemoryStore) DeleteMany(ctx context.Context, sessionIDs ...string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for _, id := range sessionIDs {
		if _, ok := s.live(id); ok {
			delete(s.entries, id)
			deleted++
		}
	}
	return deleted, nil
}

// Ping implements [Pinger].
func (s *MemoryStore) Ping(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable(err)
	}
	return 0, nil
}

// Len returns the number of unexpired sessions.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id := range s.entries {
		if _, ok := s.live(id); ok {
			n++
		}
	}
	return n
}

// live must be called with mu held. Expired entries are evicted.
func (s *MemoryStore) live(sessionID string) (memoryEntry, bool) {
	e, ok := s.entries[sessionID]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, sessionID)
		return memoryEntry{}, false
	}
	return e, true
}
