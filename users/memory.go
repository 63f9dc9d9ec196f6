package users

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/linkauth"
	"github.com/google/uuid"
)

// MemoryStore keeps users in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]linkauth.User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryStore returns an empty store. now defaults to time.Now.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		byID:    make(map[string]linkauth.User),
		byEmail: make(map[string]string),
		now:     now,
	}
}

func (s *MemoryStore) FindUserByID(ctx context.Context, id string) (linkauth.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return linkauth.User{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	return u, ok, nil
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (linkauth.User, bool, error) {
	if err := ctx.Err(); err != nil {
		return linkauth.User{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[NormalizeEmail(email)]
	if !ok {
		return linkauth.User{}, false, nil
	}
	return s.byID[id], true, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, in NewUser) (linkauth.User, error) {
	if err := ctx.Err(); err != nil {
		return linkauth.User{}, err
	}
	in, err := in.normalized()
	if err != nil {
		return linkauth.User{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[in.Email]; exists {
		return linkauth.User{}, ErrDuplicateEmail
	}

	now := s.now().UTC()
	u := linkauth.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.byID[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return u, nil
}

// Delete removes a user. Sessions already issued to them stop passing the
// guard on the next request.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.byID[id]; ok {
		delete(s.byEmail, u.Email)
		delete(s.byID, id)
	}
}
