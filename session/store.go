package session

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStoreUnavailable wraps every backend failure, timeouts included.
	// A missing key is never reported through this error.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrInvalidTTL is returned for a TTL that is not a positive number of seconds.
	ErrInvalidTTL = errors.New("session ttl must be a positive number of seconds")
	// ErrInvalidSession is returned when a session id or user id is empty.
	ErrInvalidSession = errors.New("session id and user id are required")
)

// Store is the session registry contract.
//
// Implementations must be safe for concurrent use. Put overwrites an
// existing entry. Get reports found=false with a nil error for a missing
// or expired entry. DeleteMany ignores missing ids and reports how many
// entries it actually removed.
//
// Any other failure, a deadline included, should wrap ErrStoreUnavailable.
// The manager wraps errors that do not, so a bare context.DeadlineExceeded
// still reads as an outage and never as a missing session.
type Store interface {
	Put(ctx context.Context, sessionID, userID string, ttlSeconds int64) error
	Get(ctx context.Context, sessionID string) (userID string, found bool, err error)
	DeleteMany(ctx context.Context, sessionIDs ...string) (deleted int64, err error)
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) (time.Duration, error)
}

// TTLSeconds converts a token lifetime into a registry TTL.
//
// d must be a positive whole number of seconds so that a session never
// outlives, or expires before, the token that references it.
func TTLSeconds(d time.Duration) (int64, error) {
	if d < time.Second || d%time.Second != 0 {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidTTL, d)
	}
	return int64(d / time.Second), nil
}

func validatePut(sessionID, userID string, ttlSeconds int64) error {
	if sessionID == "" || userID == "" {
		return ErrInvalidSession
	}
	if ttlSeconds <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidTTL, ttlSeconds)
	}
	return nil
}

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
}
