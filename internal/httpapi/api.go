// Package httpapi is the HTTP surface of the linkauth server: account
// registration, login, refresh, logout and the current-user endpoint.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/MrEthical07/linkauth"
	"github.com/MrEthical07/linkauth/jwt"
	"github.com/MrEthical07/linkauth/middleware"
	"github.com/MrEthical07/linkauth/password"
	"github.com/MrEthical07/linkauth/users"
	"github.com/gin-gonic/gin"
)

// Sessions is the part of *linkauth.Manager the handlers drive.
type Sessions interface {
	Issue(ctx context.Context, userID string) (linkauth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (linkauth.TokenPair, error)
	Logout(ctx context.Context, req linkauth.LogoutRequest) error
	Inspect(token string, class linkauth.TokenClass) (jwt.Claims, error)
	Ping(ctx context.Context) (time.Duration, error)
}

// LoginLimiter throttles failed logins. *rate.Limiter implements it.
type LoginLimiter interface {
	Check(ctx context.Context, email, ip string) error
	Fail(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email string) error
}

// Options configures cookies and the optional endpoints.
type Options struct {
	CookieDomain  string
	SecureCookies bool
	AccessMaxAge  int // seconds
	RefreshMaxAge int // seconds

	// Limiter throttles login attempts when non-nil.
	Limiter LoginLimiter
	// Metrics is mounted on /metrics when non-nil.
	Metrics http.Handler
	// Ready is consulted by the health check in addition to the session
	// store. Nil means always ready.
	Ready  func(ctx context.Context) error
	Logger *slog.Logger
}

// API holds the handler dependencies.
type API struct {
	sessions Sessions
	users    users.Store
	hasher   *password.Hasher
	guard    *middleware.Guard
	opts     Options
	logger   *slog.Logger
}

// New wires the handlers. guard protects logout and /users/me.
func New(sessions Sessions, store users.Store, hasher *password.Hasher, guard *middleware.Guard, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &API{
		sessions: sessions,
		users:    store,
		hasher:   hasher,
		guard:    guard,
		opts:     opts,
		logger:   logger,
	}
}

// Router returns a gin engine with every route mounted.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())
	a.Mount(r)
	return r
}

// Mount registers the routes on r.
func (a *API) Mount(r gin.IRouter) {
	api := r.Group("/api")
	api.GET("/healthchecker", a.health)

	auth := api.Group("/auth")
	auth.POST("/register", a.register)
	auth.POST("/login", a.login)
	auth.GET("/refresh", a.refresh)
	auth.GET("/logout", a.guard.Gin(), a.logout)

	api.GET("/users/me", a.guard.Gin(), a.me)

	if a.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(a.opts.Metrics))
	}
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		a.logger.DebugContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}

func (a *API) health(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := a.sessions.Ping(ctx); err != nil {
		a.logger.WarnContext(ctx, "health check: session store", "error", err)
		fail(c, http.StatusServiceUnavailable, "Session store unavailable")
		return
	}
	if a.opts.Ready != nil {
		if err := a.opts.Ready(ctx); err != nil {
			a.logger.WarnContext(ctx, "health check: dependency", "error", err)
			fail(c, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Server is running successfully!"})
}
