package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookupFunc reads one environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

func lookupString(lookup LookupFunc, key string, dst *string) {
	if v, ok := lookup(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
}

func lookupBool(lookup LookupFunc, key string, dst *bool) error {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func lookupDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return fmt.Errorf("%s: invalid duration %q", key, v)
	}
	*dst = d
	return nil
}

func lookupInt(lookup LookupFunc, key string, dst *int) error {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fmt.Errorf("%s: invalid positive integer %q", key, v)
	}
	*dst = n
	return nil
}

// lookupMinutes accepts "60" or "60m": the leading digits are the number
// of minutes.
func lookupMinutes(lookup LookupFunc, key string, dst *int64) error {
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}
	n, err := parseMinutes(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func parseMinutes(v string) (int64, error) {
	v = strings.TrimSpace(v)
	end := 0
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("invalid max age %q", v)
	}
	n, err := strconv.ParseInt(v[:end], 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid max age %q", v)
	}
	return n, nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	lookupString(lookup, "LINKAUTH_HTTP_ADDR", &c.HTTPAddr)
	lookupString(lookup, "LINKAUTH_LOG_LEVEL", &c.LogLevel)
	lookupString(lookup, "LINKAUTH_LOG_FORMAT", &c.LogFormat)
	lookupString(lookup, "LINKAUTH_REDIS_PREFIX", &c.RedisPrefix)
	lookupString(lookup, "LINKAUTH_SESSION_ID_FORMAT", &c.SessionIDFormat)

	lookupString(lookup, "DATABASE_URL", &c.DatabaseURL)
	lookupString(lookup, "REDIS_URL", &c.RedisURL)
	lookupString(lookup, "CLIENT_ORIGIN", &c.ClientOrigin)
	lookupString(lookup, "DOMAIN", &c.Domain)

	lookupString(lookup, "ACCESS_TOKEN_PRIVATE_KEY", &c.Access.PrivateKey)
	lookupString(lookup, "ACCESS_TOKEN_PUBLIC_KEY", &c.Access.PublicKey)
	lookupString(lookup, "REFRESH_TOKEN_PRIVATE_KEY", &c.Refresh.PrivateKey)
	lookupString(lookup, "REFRESH_TOKEN_PUBLIC_KEY", &c.Refresh.PublicKey)

	for _, err := range []error{
		lookupMinutes(lookup, "ACCESS_TOKEN_MAXAGE", &c.Access.MaxAgeMinutes),
		lookupMinutes(lookup, "REFRESH_TOKEN_MAXAGE", &c.Refresh.MaxAgeMinutes),
		lookupBool(lookup, "LINKAUTH_SECURE_COOKIES", &c.SecureCookies),
		lookupBool(lookup, "LINKAUTH_METRICS", &c.MetricsEnabled),
		lookupBool(lookup, "LINKAUTH_AUDIT", &c.AuditEnabled),
		lookupDuration(lookup, "LINKAUTH_STORE_TIMEOUT", &c.StoreTimeout),
		lookupDuration(lookup, "LINKAUTH_SHUTDOWN_TIMEOUT", &c.ShutdownTimeout),
		lookupDuration(lookup, "LINKAUTH_LOGIN_WINDOW", &c.LoginWindow),
		lookupInt(lookup, "LINKAUTH_LOGIN_MAX_ATTEMPTS", &c.LoginMaxAttempts),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
