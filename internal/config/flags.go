package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flags binds the command-line overrides to a flag set. Only flags the
// user actually passed override lower layers.
type Flags struct {
	fs *pflag.FlagSet

	path            string
	httpAddr        string
	logLevel        string
	logFormat       string
	databaseURL     string
	redisURL        string
	domain          string
	sessionIDs      string
	secureCookies   bool
	metrics         bool
	audit           bool
	shutdownTimeout time.Duration
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	d := Default()
	f := &Flags{fs: fs}
	fs.StringVarP(&f.path, "config", "c", "", "path to a YAML config file")
	fs.StringVar(&f.httpAddr, "http-addr", d.HTTPAddr, "HTTP listen address")
	fs.StringVar(&f.logLevel, "log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", d.LogFormat, "log format (json, text)")
	fs.StringVar(&f.databaseURL, "database-url", "", "Postgres connection URL (empty uses an in-memory user store)")
	fs.StringVar(&f.redisURL, "redis-url", "", "Redis URL for the session registry (empty uses an in-memory registry)")
	fs.StringVar(&f.domain, "domain", d.Domain, "cookie domain")
	fs.StringVar(&f.sessionIDs, "session-ids", d.SessionIDFormat, "session id format (uuid, ulid)")
	fs.BoolVar(&f.secureCookies, "secure-cookies", d.SecureCookies, "mark auth cookies Secure with SameSite=None")
	fs.BoolVar(&f.metrics, "metrics", d.MetricsEnabled, "enable counters and the /metrics endpoint")
	fs.BoolVar(&f.audit, "audit", d.AuditEnabled, "enable the audit log")
	fs.DurationVar(&f.shutdownTimeout, "shutdown-timeout", d.ShutdownTimeout, "graceful shutdown deadline")
	return f
}

// Load builds the layered configuration. fs must already be parsed.
func (f *Flags) Load(lookup LookupFunc) (Config, error) {
	cfg := Default()
	if f.path != "" {
		if err := cfg.LoadFile(f.path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config) {
	set := f.fs.Changed
	if set("http-addr") {
		cfg.HTTPAddr = f.httpAddr
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if set("log-format") {
		cfg.LogFormat = f.logFormat
	}
	if set("database-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if set("redis-url") {
		cfg.RedisURL = f.redisURL
	}
	if set("domain") {
		cfg.Domain = f.domain
	}
	if set("session-ids") {
		cfg.SessionIDFormat = f.sessionIDs
	}
	if set("secure-cookies") {
		cfg.SecureCookies = f.secureCookies
	}
	if set("metrics") {
		cfg.MetricsEnabled = f.metrics
	}
	if set("audit") {
		cfg.AuditEnabled = f.audit
	}
	if set("shutdown-timeout") {
		cfg.ShutdownTimeout = f.shutdownTimeout
	}
}
