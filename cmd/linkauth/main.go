// Command linkauth serves the short-link account API: registration, login,
// token refresh, logout and the current-user endpoint.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/linkauth"
	"github.com/MrEthical07/linkauth/internal/config"
	"github.com/MrEthical07/linkauth/internal/httpapi"
	"github.com/MrEthical07/linkauth/internal/logging"
	"github.com/MrEthical07/linkauth/internal/rate"
	"github.com/MrEthical07/linkauth/metrics/export/prometheus"
	"github.com/MrEthical07/linkauth/middleware"
	"github.com/MrEthical07/linkauth/password"
	"github.com/MrEthical07/linkauth/session"
	"github.com/MrEthical07/linkauth/users"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "linkauth: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("linkauth", pflag.ContinueOnError)
	flags := config.BindFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := flags.Load(os.LookupEnv)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	managerCfg, err := cfg.ManagerConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	var ids linkauth.IDGenerator = linkauth.UUIDGenerator{}
	if cfg.SessionIDFormat == "ulid" {
		ids = linkauth.NewULIDGenerator(linkauth.SystemClock{})
	}

	builder := linkauth.New().
		WithConfig(managerCfg).
		WithLogger(log).
		WithIDGenerator(ids)
	if cfg.AuditEnabled {
		builder = builder.WithAuditSink(linkauth.NewSlogSink(log.With("component", "audit")))
	}

	var limiter httpapi.LoginLimiter
	if cfg.RedisURL != "" {
		rdb, err := newRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		builder = builder.WithRedis(rdb)
		limiter = rate.New(rdb, rate.Config{
			KeyPrefix:        managerCfg.Session.RedisPrefix,
			MaxAttempts:      cfg.LoginMaxAttempts,
			Window:           cfg.LoginWindow,
			EnableIPThrottle: true,
		})
		log.Info("session registry ready", "backend", "redis")
	} else {
		builder = builder.WithStore(session.NewMemoryStore(time.Now))
		log.Warn("REDIS_URL not set; sessions are kept in memory and lost on restart")
	}

	var (
		store users.Store
		ready func(context.Context) error
	)
	if cfg.DatabaseURL != "" {
		pool, err := newDBPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		pg, err := users.NewPostgresStore(pool)
		if err != nil {
			return err
		}
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate users: %w", err)
		}
		store, ready = pg, pg.Ping
		log.Info("user store ready", "backend", "postgres")
	} else {
		store = users.NewMemoryStore(nil)
		log.Warn("DATABASE_URL not set; accounts are kept in memory and lost on restart")
	}

	manager, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build manager: %w", err)
	}
	defer manager.Close()

	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return err
	}

	opts := httpapi.Options{
		CookieDomain:  cfg.Domain,
		SecureCookies: cfg.SecureCookies,
		AccessMaxAge:  int(manager.MaxAge(linkauth.AccessToken).Seconds()),
		RefreshMaxAge: int(manager.MaxAge(linkauth.RefreshToken).Seconds()),
		Ready:         ready,
		Limiter:       limiter,
		Logger:        log,
	}
	if cfg.MetricsEnabled {
		opts.Metrics = prometheus.NewPrometheusExporter(manager).Handler()
	}

	api := httpapi.New(manager, store, hasher, middleware.NewGuard(manager, store, log), opts)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("stopped cleanly", "audit_dropped", manager.AuditDropped())
	return nil
}

func newRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func newDBPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pcfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}
	return pool, nil
}
