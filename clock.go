package linkauth

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Clock supplies the current time to every expiry decision.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to [Clock].
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// IDGenerator produces fresh, never reused session ids.
type IDGenerator interface {
	NewID() (string, error)
}

// UUIDGenerator issues random (version 4) UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ULIDGenerator issues ULIDs timestamped from its clock. Ids minted within
// the same millisecond are monotonically increasing.
type ULIDGenerator struct {
	clock   Clock
	mu      sync.Mutex
	entropy io.Reader
}

// NewULIDGenerator returns a generator reading time from clock.
func NewULIDGenerator(clock Clock) *ULIDGenerator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ULIDGenerator{
		clock:   clock,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (g *ULIDGenerator) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(g.clock.Now().UTC()), g.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
