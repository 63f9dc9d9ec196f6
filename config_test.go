package linkauth

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"unknown method", func(c *Config) { c.Access.SigningMethod = "hs256" }, "unsupported signing method"},
		{"missing private key", func(c *Config) { c.Refresh.PrivateKey = nil }, "PrivateKey is required"},
		{"missing public key", func(c *Config) { c.Access.PublicKey = nil }, "PublicKey is required"},
		{"zero max-age", func(c *Config) { c.Access.MaxAge = 0 }, "MaxAge"},
		{"fractional max-age", func(c *Config) { c.Refresh.MaxAge = 1500 * time.Millisecond }, "MaxAge"},
		{"negative leeway", func(c *Config) { c.Access.Leeway = -time.Second }, "Leeway"},
		{"store timeout", func(c *Config) { c.Session.StoreTimeout = 0 }, "StoreTimeout"},
		{"rollback timeout", func(c *Config) { c.Session.RollbackTimeout = 0 }, "RollbackTimeout"},
		{"audit buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }, "BufferSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestBuildRejectsBadKeys(t *testing.T) {
	cfg := testConfig(t)
	cfg.Access.PrivateKey = []byte("not a key")

	if _, err := New().WithConfig(cfg).WithStore(newMemoryStoreForTest()).Build(); err == nil {
		t.Fatal("expected key parse error at build time")
	}
}

func TestBuildRequiresStore(t *testing.T) {
	if _, err := New().WithConfig(testConfig(t)).Build(); err == nil {
		t.Fatal("expected missing store error")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	b := New().WithConfig(testConfig(t)).WithStore(newMemoryStoreForTest())
	m, err := b.Build()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	defer m.Close()
	if _, err := b.Build(); err == nil {
		t.Fatal("expected second build to fail")
	}
}

func TestBuildConfigImmutableAgainstExternalMutation(t *testing.T) {
	cfg := testConfig(t)
	b := New().WithConfig(cfg).WithStore(newMemoryStoreForTest())
	cfg.Access.PrivateKey[0] ^= 0xff

	m, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer m.Close()
	if m.config.Access.PrivateKey[0] == cfg.Access.PrivateKey[0] {
		t.Fatal("builder must copy key material")
	}
}

func TestDefaultConfigShape(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Access.MaxAge != 15*time.Minute || cfg.Refresh.MaxAge != 7*24*time.Hour {
		t.Fatalf("unexpected default max-ages %v / %v", cfg.Access.MaxAge, cfg.Refresh.MaxAge)
	}
	if !cfg.Rotation.RevokeOnRefresh {
		t.Fatal("refresh tokens must be single-use by default")
	}
	if cfg.Session.StoreTimeout != 2*time.Second {
		t.Fatalf("store timeout = %v", cfg.Session.StoreTimeout)
	}
}
