package linkauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/linkauth/internal/audit"
	"github.com/MrEthical07/linkauth/internal/flows"
	"github.com/MrEthical07/linkauth/jwt"
	"github.com/MrEthical07/linkauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Manager]. A Builder is single-use.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	store  session.Store

	clock     Clock
	ids       IDGenerator
	auditSink AuditSink
	logger    *slog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. The key material is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis backs the session registry with client under
// Config.Session.RedisPrefix. Ignored when WithStore is also used.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore injects a session registry directly.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

func (b *Builder) WithClock(clock Clock) *Builder {
	b.clock = clock
	return b
}

func (b *Builder) WithIDGenerator(ids IDGenerator) *Builder {
	b.ids = ids
	return b
}

// WithAuditSink sets the sink audit events are dispatched to. It has no
// effect unless Config.Audit.Enabled is set.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, parses every key and wires the
// manager. All key and configuration errors surface here.
func (b *Builder) Build() (*Manager, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store := b.store
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("session store or redis client required")
		}
		store = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, 0)
	}

	clock := b.clock
	if clock == nil {
		clock = SystemClock{}
	}
	ids := b.ids
	if ids == nil {
		ids = UUIDGenerator{}
	}
	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	access, err := jwt.NewSigner(signerConfig(AccessToken, cfg.Access, clock))
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.NewSigner(signerConfig(RefreshToken, cfg.Refresh, clock))
	if err != nil {
		return nil, err
	}
	codec, err := jwt.NewCodec(access, refresh, clock.Now)
	if err != nil {
		return nil, err
	}

	for _, w := range cfg.Lint() {
		level := slog.LevelInfo
		if w.Severity >= LintWarn {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, "config lint", "code", w.Code, "severity", w.Severity.String(), "message", w.Message)
	}

	m := &Manager{
		config:  cfg,
		codec:   codec,
		store:   store,
		clock:   clock,
		ids:     ids,
		metrics: NewMetrics(cfg.Metrics),
		logger:  logger,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:      cfg.Audit.Enabled,
			BufferSize:   cfg.Audit.BufferSize,
			DropIfFull:   cfg.Audit.DropIfFull,
			DrainTimeout: cfg.Audit.DrainTimeout,
		}, b.auditSink),
	}
	m.flows = flows.New(buildFlowDeps(m))

	b.built = true
	return m, nil
}

func signerConfig(class TokenClass, tc TokenConfig, clock Clock) jwt.Config {
	return jwt.Config{
		Class:         class,
		SigningMethod: jwt.SigningMethod(tc.SigningMethod),
		PrivateKey:    cloneBytes(tc.PrivateKey),
		PublicKey:     cloneBytes(tc.PublicKey),
		MaxAge:        tc.MaxAge,
		Issuer:        tc.Issuer,
		Leeway:        tc.Leeway,
		Now:           clock.Now,
	}
}

func buildFlowDeps(m *Manager) flows.Deps {
	storeCtx := flows.Timeout(m.config.Session.StoreTimeout)

	issue := flows.IssueDeps{
		NewSessionID: m.ids.NewID,
		Mint:         m.codec.Mint,
		TTLSeconds: func(class jwt.Class) int64 {
			return int64(m.codec.MaxAge(class) / time.Second)
		},
		SessionStore:    m.store,
		StoreContext:    storeCtx,
		RollbackContext: flows.Detached(m.config.Session.RollbackTimeout),
		Warn:            m.logger.Warn,
	}
	verify := flows.VerifyDeps{
		Parse:        m.codec.Parse,
		SessionStore: m.store,
		StoreContext: storeCtx,
	}
	revoke := flows.RevokeDeps{
		SessionStore: m.store,
		StoreContext: storeCtx,
	}

	return flows.Deps{
		Issue:  issue,
		Verify: verify,
		Refresh: flows.RefreshDeps{
			Verify: func(ctx context.Context, token string, class jwt.Class) flows.VerifyResult {
				return flows.RunVerify(ctx, token, class, verify)
			},
			Issue: func(ctx context.Context, userID string) flows.IssueResult {
				return flows.RunIssue(ctx, userID, issue)
			},
			RevokeOnRefresh: m.config.Rotation.RevokeOnRefresh,
			SessionStore:    m.store,
			StoreContext:    storeCtx,
			RollbackContext: issue.RollbackContext,
			Warn:            m.logger.Warn,
		},
		Revoke: revoke,
		Logout: flows.LogoutDeps{
			Inspect: m.codec.Parse,
			Revoke: func(ctx context.Context, sessionIDs ...string) flows.RevokeResult {
				return flows.RunRevoke(ctx, revoke, sessionIDs...)
			},
		},
	}
}
