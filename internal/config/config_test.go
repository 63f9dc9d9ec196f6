package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func keyEnv() map[string]string {
	return map[string]string{
		"ACCESS_TOKEN_PRIVATE_KEY":  b64("access-private"),
		"ACCESS_TOKEN_PUBLIC_KEY":   b64("access-public"),
		"ACCESS_TOKEN_MAXAGE":       "15",
		"REFRESH_TOKEN_PRIVATE_KEY": b64("refresh-private"),
		"REFRESH_TOKEN_PUBLIC_KEY":  b64("refresh-public"),
		"REFRESH_TOKEN_MAXAGE":      "60m",
	}
}

func loadWith(t *testing.T, args []string, env map[string]string) (Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return flags.Load(envMap(env))
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "linkauth.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromEnvOnly(t *testing.T) {
	env := keyEnv()
	env["REDIS_URL"] = "redis://localhost:6379/0"
	env["DOMAIN"] = "short.example"

	cfg, err := loadWith(t, nil, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Access.MaxAgeMinutes != 15 || cfg.Refresh.MaxAgeMinutes != 60 {
		t.Fatalf("max ages = %d/%d", cfg.Access.MaxAgeMinutes, cfg.Refresh.MaxAgeMinutes)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" || cfg.Domain != "short.example" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.HTTPAddr != Default().HTTPAddr {
		t.Fatalf("expected default http addr, got %q", cfg.HTTPAddr)
	}
}

func TestLayerPrecedence(t *testing.T) {
	path := writeYAML(t, `
http_addr: "127.0.0.1:9000"
log_level: debug
domain: yaml.example
redis_prefix: yamlprefix
store_timeout: 750ms
access_token:
  max_age_minutes: 5
`)
	env := keyEnv()
	delete(env, "ACCESS_TOKEN_MAXAGE")
	env["DOMAIN"] = "env.example"

	cfg, err := loadWith(t, []string{"--config", path, "--domain", "flag.example"}, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" || cfg.LogLevel != "debug" {
		t.Fatalf("yaml values lost: %+v", cfg)
	}
	if cfg.Access.MaxAgeMinutes != 5 {
		t.Fatalf("expected yaml access max age 5, got %d", cfg.Access.MaxAgeMinutes)
	}
	if cfg.StoreTimeout != 750*time.Millisecond || cfg.RedisPrefix != "yamlprefix" {
		t.Fatalf("yaml session values lost: %+v", cfg)
	}
	if cfg.Domain != "flag.example" {
		t.Fatalf("flag should win over env and yaml, got %q", cfg.Domain)
	}
}

func TestUnsetFlagDoesNotOverrideEnv(t *testing.T) {
	env := keyEnv()
	env["LINKAUTH_HTTP_ADDR"] = "10.0.0.1:8080"

	cfg, err := loadWith(t, []string{"--log-level", "error"}, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != "10.0.0.1:8080" {
		t.Fatalf("flag default overrode env: %q", cfg.HTTPAddr)
	}
	if cfg.LogLevel != "error" {
		t.Fatalf("log level = %q", cfg.LogLevel)
	}
}

func TestUnknownYAMLKeyRejected(t *testing.T) {
	path := writeYAML(t, "no_such_setting: 1\n")
	if _, err := loadWith(t, []string{"--config", path}, keyEnv()); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestValidateReportsMissingKeys(t *testing.T) {
	_, err := loadWith(t, nil, map[string]string{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{
		"ACCESS_TOKEN_PRIVATE_KEY",
		"ACCESS_TOKEN_PUBLIC_KEY",
		"REFRESH_TOKEN_PRIVATE_KEY",
		"REFRESH_TOKEN_PUBLIC_KEY",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err)
		}
	}
}

func TestInvalidEnvValues(t *testing.T) {
	cases := map[string]string{
		"ACCESS_TOKEN_MAXAGE":         "soon",
		"REFRESH_TOKEN_MAXAGE":        "0",
		"LINKAUTH_SECURE_COOKIES":     "maybe",
		"LINKAUTH_STORE_TIMEOUT":      "-1s",
		"LINKAUTH_LOGIN_MAX_ATTEMPTS": "lots",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			env := keyEnv()
			env[key] = value
			_, err := loadWith(t, nil, env)
			if err == nil || !strings.Contains(err.Error(), key) {
				t.Fatalf("expected error naming %s, got %v", key, err)
			}
		})
	}
}

func TestMaxAgeBeyondDurationRange(t *testing.T) {
	env := keyEnv()
	env["ACCESS_TOKEN_MAXAGE"] = "200000000"
	_, err := loadWith(t, nil, env)
	if err == nil || !strings.Contains(err.Error(), "ACCESS_TOKEN_MAXAGE must be at most 153722867 minutes") {
		t.Fatalf("expected max age range error, got %v", err)
	}

	cfg, err := loadWith(t, nil, keyEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Refresh.MaxAgeMinutes = maxAgeMinutesLimit + 1
	if _, err := cfg.ManagerConfig(); err == nil || !strings.Contains(err.Error(), "refresh max age") {
		t.Fatalf("expected refresh max age error, got %v", err)
	}

	cfg.Refresh.MaxAgeMinutes = maxAgeMinutesLimit
	mc, err := cfg.ManagerConfig()
	if err != nil {
		t.Fatalf("ManagerConfig at the limit: %v", err)
	}
	if mc.Refresh.MaxAge <= 0 {
		t.Fatalf("max age wrapped: %s", mc.Refresh.MaxAge)
	}
}

func TestParseMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"15", 15, true},
		{"60m", 60, true},
		{" 7 ", 7, true},
		{"m60", 0, false},
		{"", 0, false},
		{"0", 0, false},
	}
	for _, tc := range cases {
		got, err := parseMinutes(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("parseMinutes(%q) = %d, %v", tc.in, got, err)
		}
	}
}

func TestManagerConfigConvertsMinutesOnce(t *testing.T) {
	cfg, err := loadWith(t, []string{"--audit"}, keyEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	mc, err := cfg.ManagerConfig()
	if err != nil {
		t.Fatalf("ManagerConfig: %v", err)
	}
	if mc.Access.MaxAge != 15*time.Minute || mc.Refresh.MaxAge != time.Hour {
		t.Fatalf("max ages = %s/%s", mc.Access.MaxAge, mc.Refresh.MaxAge)
	}
	if string(mc.Access.PrivateKey) != "access-private" || string(mc.Refresh.PublicKey) != "refresh-public" {
		t.Fatal("keys were not base64-decoded")
	}
	if !mc.Audit.Enabled || !mc.Metrics.Enabled {
		t.Fatalf("expected audit and metrics enabled: %+v %+v", mc.Audit, mc.Metrics)
	}
	if mc.Session.RedisPrefix != "las" {
		t.Fatalf("prefix = %q", mc.Session.RedisPrefix)
	}
}

func TestManagerConfigRejectsBadBase64(t *testing.T) {
	env := keyEnv()
	env["REFRESH_TOKEN_PUBLIC_KEY"] = "%%%not-base64"
	cfg, err := loadWith(t, nil, env)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := cfg.ManagerConfig(); err == nil || !strings.Contains(err.Error(), "refresh public key") {
		t.Fatalf("expected refresh public key error, got %v", err)
	}
}

func TestSessionIDFormat(t *testing.T) {
	cfg, err := loadWith(t, []string{"--session-ids", "ulid"}, keyEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionIDFormat != "ulid" {
		t.Fatalf("format = %q", cfg.SessionIDFormat)
	}

	env := keyEnv()
	env["LINKAUTH_SESSION_ID_FORMAT"] = "snowflake"
	if _, err := loadWith(t, nil, env); err == nil || !strings.Contains(err.Error(), "snowflake") {
		t.Fatalf("expected invalid format error, got %v", err)
	}
}
