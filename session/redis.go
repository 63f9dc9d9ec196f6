package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces session keys in a shared Redis database.
const DefaultKeyPrefix = "las"

// RedisStore is a Redis-backed [Store].
//
// Each session is one string key holding the user id, written with
// SET EX so Redis expires it together with the token.
type RedisStore struct {
	redis     redis.UniversalClient
	prefix    string
	opTimeout time.Duration
}

// NewRedisStore creates a [RedisStore] on client.
//
// prefix may be empty, in which case the session id is used as the key
// verbatim. opTimeout bounds every Redis round trip; zero leaves the
// caller's context as the only bound.
func NewRedisStore(client redis.UniversalClient, prefix string, opTimeout time.Duration) *RedisStore {
	return &RedisStore{
		redis:     client,
		prefix:    prefix,
		opTimeout: opTimeout,
	}
}

func (s *RedisStore) key(sessionID string) string {
	if s.prefix == "" {
		return sessionID
	}
	return s.prefix + ":" + sessionID
}

func (s *RedisStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// Put stores sessionID -> userID for ttlSeconds.
//
//	Performance: 1 Redis SET EX.
func (s *RedisStore) Put(ctx context.Context, sessionID, userID string, ttlSeconds int64) error {
	if err := validatePut(sessionID, userID, ttlSeconds); err != nil {
		return err
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	ttl := time.Duration(ttlSeconds) * time.Second
	if err := s.redis.Set(ctx, s.key(sessionID), userID, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Get returns the user id bound to sessionID.
//
//	Performance: 1 Redis GET.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	userID, err := s.redis.Get(ctx, s.key(sessionID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, unavailable(err)
	}
	return userID, true, nil
}

// DeleteMany removes all given sessions in a single DEL.
//
//	Performance: 1 Redis DEL (0 when ids is empty).
func (s *RedisStore) DeleteMany(ctx context.Context, sessionIDs ...string) (int64, error) {
	keys := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		if id != "" {
			keys = append(keys, s.key(id))
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}
	ctx, cancel := s.bound(ctx)
	defer cancel()

	deleted, err := s.redis.Del(ctx, keys...).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return deleted, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *RedisStore) Ping(ctx context.Context) (time.Duration, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()

	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), unavailable(err)
	}
	return time.Since(start), nil
}
