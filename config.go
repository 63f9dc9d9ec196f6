package linkauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/linkauth/jwt"
	"github.com/MrEthical07/linkauth/session"
)

// Config holds everything a [Manager] needs that is not an injected
// dependency.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	Access   TokenConfig
	Refresh  TokenConfig
	Session  SessionConfig
	Rotation RotationConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig describes one token class. Each class has its own key pair.
type TokenConfig struct {
	SigningMethod string // "rs256" (default) or "ed25519"
	PrivateKey    []byte // PEM
	PublicKey     []byte // PEM
	MaxAge        time.Duration
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig tunes the session registry round trips.
type SessionConfig struct {
	RedisPrefix     string
	StoreTimeout    time.Duration
	RollbackTimeout time.Duration
}

/*
====================================
ROTATION CONFIG
====================================
*/

// RotationConfig controls what a refresh does to the session it consumes.
type RotationConfig struct {
	// RevokeOnRefresh makes refresh tokens single-use: the old refresh
	// session is deleted before the new pair is issued, and a concurrent
	// second refresh with the same token fails.
	RevokeOnRefresh bool
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled      bool
	BufferSize   int
	DropIfFull   bool
	DrainTimeout time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. Keys are left empty
// and must be supplied.
func DefaultConfig() Config {
	return Config{
		Access: TokenConfig{
			SigningMethod: string(jwt.MethodRS256),
			MaxAge:        15 * time.Minute,
		},
		Refresh: TokenConfig{
			SigningMethod: string(jwt.MethodRS256),
			MaxAge:        7 * 24 * time.Hour,
		},
		Session: SessionConfig{
			RedisPrefix:     session.DefaultKeyPrefix,
			StoreTimeout:    2 * time.Second,
			RollbackTimeout: 2 * time.Second,
		},
		Rotation: RotationConfig{
			RevokeOnRefresh: true,
		},
		Audit: AuditConfig{
			Enabled:      false,
			BufferSize:   1024,
			DropIfFull:   true,
			DrainTimeout: 5 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Access.PrivateKey = cloneBytes(cfg.Access.PrivateKey)
	out.Access.PublicKey = cloneBytes(cfg.Access.PublicKey)
	out.Refresh.PrivateKey = cloneBytes(cfg.Refresh.PrivateKey)
	out.Refresh.PublicKey = cloneBytes(cfg.Refresh.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first structural problem in c. Key material is
// parsed later, by [Builder.Build].
func (c *Config) Validate() error {
	if err := c.Access.validate(AccessToken); err != nil {
		return err
	}
	if err := c.Refresh.validate(RefreshToken); err != nil {
		return err
	}

	if c.Session.StoreTimeout <= 0 {
		return errors.New("Session StoreTimeout must be > 0")
	}
	if c.Session.RollbackTimeout <= 0 {
		return errors.New("Session RollbackTimeout must be > 0")
	}

	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
		if c.Audit.DrainTimeout < 0 {
			return errors.New("Audit DrainTimeout must be >= 0")
		}
	}

	return nil
}

func (t *TokenConfig) validate(class TokenClass) error {
	switch jwt.SigningMethod(t.SigningMethod) {
	case "", jwt.MethodRS256, jwt.MethodEd25519:
	default:
		return fmt.Errorf("%s: unsupported signing method %q", class, t.SigningMethod)
	}
	if len(t.PrivateKey) == 0 {
		return fmt.Errorf("%s: PrivateKey is required", class)
	}
	if len(t.PublicKey) == 0 {
		return fmt.Errorf("%s: PublicKey is required", class)
	}
	if _, err := session.TTLSeconds(t.MaxAge); err != nil {
		return fmt.Errorf("%s: MaxAge must be a positive whole number of seconds", class)
	}
	if t.Leeway < 0 {
		return fmt.Errorf("%s: Leeway must be >= 0", class)
	}
	return nil
}
