// Package config loads the linkauth server configuration.
//
// Values are layered in a fixed order: built-in defaults, then an optional
// YAML file, then environment variables, then command-line flags. Each layer
// only overrides what it sets.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/MrEthical07/linkauth"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	HTTPAddr        string        `yaml:"http_addr"`
	LogLevel        string        `yaml:"log_level"`
	LogFormat       string        `yaml:"log_format"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	DatabaseURL  string        `yaml:"database_url"`
	RedisURL     string        `yaml:"redis_url"`
	RedisPrefix  string        `yaml:"redis_prefix"`
	StoreTimeout time.Duration `yaml:"store_timeout"`

	ClientOrigin  string `yaml:"client_origin"`
	Domain        string `yaml:"domain"`
	SecureCookies bool   `yaml:"secure_cookies"`

	Access  TokenKeys `yaml:"access_token"`
	Refresh TokenKeys `yaml:"refresh_token"`

	// LoginMaxAttempts failed logins per email or IP within LoginWindow
	// trigger 429 responses. Only enforced with a Redis backend.
	LoginMaxAttempts int           `yaml:"login_max_attempts"`
	LoginWindow      time.Duration `yaml:"login_window"`

	// SessionIDFormat selects the session id generator: "uuid" or "ulid".
	SessionIDFormat string `yaml:"session_id_format"`

	MetricsEnabled bool `yaml:"metrics_enabled"`
	AuditEnabled   bool `yaml:"audit_enabled"`
}

// TokenKeys holds one token class's key pair and lifetime.
type TokenKeys struct {
	// PrivateKey and PublicKey are base64-encoded PEM documents.
	PrivateKey    string `yaml:"private_key"`
	PublicKey     string `yaml:"public_key"`
	MaxAgeMinutes int64  `yaml:"max_age_minutes"`
}

// Default returns the configuration used when nothing else is set.
func Default() Config {
	return Config{
		HTTPAddr:         "0.0.0.0:8000",
		LogLevel:         "info",
		LogFormat:        "json",
		ShutdownTimeout:  10 * time.Second,
		RedisPrefix:      "las",
		StoreTimeout:     2 * time.Second,
		Domain:           "localhost",
		Access:           TokenKeys{MaxAgeMinutes: 15},
		Refresh:          TokenKeys{MaxAgeMinutes: 60},
		SessionIDFormat:  "uuid",
		LoginMaxAttempts: 5,
		LoginWindow:      15 * time.Minute,
		MetricsEnabled:   true,
	}
}

// LoadFile overlays the YAML document at path onto c. Unknown keys are
// rejected.
func (c *Config) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}

// Validate reports every missing or inconsistent setting at once.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.HTTPAddr) == "" {
		errs = append(errs, errors.New("http address is required"))
	}
	errs = append(errs, c.Access.validate("ACCESS_TOKEN")...)
	errs = append(errs, c.Refresh.validate("REFRESH_TOKEN")...)
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("store timeout must be > 0"))
	}
	switch c.SessionIDFormat {
	case "uuid", "ulid":
	default:
		errs = append(errs, fmt.Errorf("session id format %q is not uuid or ulid", c.SessionIDFormat))
	}
	if c.LoginMaxAttempts <= 0 || c.LoginWindow <= 0 {
		errs = append(errs, errors.New("login throttle attempts and window must be > 0"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown timeout must be > 0"))
	}
	return errors.Join(errs...)
}

// maxAgeMinutesLimit is the largest lifetime a time.Duration can hold.
const maxAgeMinutesLimit = int64(math.MaxInt64 / time.Minute)

func (k TokenKeys) validate(name string) []error {
	var errs []error
	if k.PrivateKey == "" {
		errs = append(errs, fmt.Errorf("%s_PRIVATE_KEY is required", name))
	}
	if k.PublicKey == "" {
		errs = append(errs, fmt.Errorf("%s_PUBLIC_KEY is required", name))
	}
	switch {
	case k.MaxAgeMinutes <= 0:
		errs = append(errs, fmt.Errorf("%s_MAXAGE must be a positive number of minutes", name))
	case k.MaxAgeMinutes > maxAgeMinutesLimit:
		errs = append(errs, fmt.Errorf("%s_MAXAGE must be at most %d minutes", name, maxAgeMinutesLimit))
	}
	return errs
}

// ManagerConfig decodes the key material and converts the minute-based
// lifetimes into a library configuration.
func (c Config) ManagerConfig() (linkauth.Config, error) {
	out := linkauth.DefaultConfig()

	access, err := c.Access.tokenConfig(out.Access, "access")
	if err != nil {
		return linkauth.Config{}, err
	}
	refresh, err := c.Refresh.tokenConfig(out.Refresh, "refresh")
	if err != nil {
		return linkauth.Config{}, err
	}
	out.Access = access
	out.Refresh = refresh

	if c.RedisPrefix != "" {
		out.Session.RedisPrefix = c.RedisPrefix
	}
	out.Session.StoreTimeout = c.StoreTimeout
	out.Metrics.Enabled = c.MetricsEnabled
	out.Metrics.EnableLatencyHistograms = c.MetricsEnabled
	out.Audit.Enabled = c.AuditEnabled
	return out, nil
}

func (k TokenKeys) tokenConfig(base linkauth.TokenConfig, class string) (linkauth.TokenConfig, error) {
	priv, err := decodeKey(k.PrivateKey)
	if err != nil {
		return linkauth.TokenConfig{}, fmt.Errorf("%s private key: %w", class, err)
	}
	pub, err := decodeKey(k.PublicKey)
	if err != nil {
		return linkauth.TokenConfig{}, fmt.Errorf("%s public key: %w", class, err)
	}
	if k.MaxAgeMinutes <= 0 || k.MaxAgeMinutes > maxAgeMinutesLimit {
		return linkauth.TokenConfig{}, fmt.Errorf("%s max age: %d minutes is out of range", class, k.MaxAgeMinutes)
	}
	base.PrivateKey = priv
	base.PublicKey = pub
	base.MaxAge = time.Duration(k.MaxAgeMinutes) * time.Minute
	return base, nil
}

func decodeKey(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, errors.New("empty key")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return raw, nil
}
