package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/MrEthical07/linkauth"
)

// AccessTokenCookie is the cookie the guard reads before any header.
const AccessTokenCookie = "access_token"

// Verifier is the part of *linkauth.Manager the guard needs.
type Verifier interface {
	VerifySession(ctx context.Context, token string, class linkauth.TokenClass) (linkauth.SessionInfo, error)
}

// Principal is the authenticated caller of a guarded request.
type Principal struct {
	User    linkauth.User
	Session linkauth.SessionInfo
}

type principalContextKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal stored by the guard.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}

// Guard authenticates requests against a session manager and a user
// provider.
type Guard struct {
	verifier Verifier
	users    linkauth.UserProvider
	logger   *slog.Logger
}

// NewGuard returns a guard. logger may be nil.
func NewGuard(verifier Verifier, users linkauth.UserProvider, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guard{verifier: verifier, users: users, logger: logger}
}

// Authenticate extracts, verifies and resolves the access token on r.
//
// Errors are linkauth sentinels: ErrCredentialMissing when no token was
// presented, the token and session errors from verification,
// ErrUserNotFound when the user is gone, and ErrUserLookupFailed when the
// provider could not answer.
func (g *Guard) Authenticate(r *http.Request) (*Principal, error) {
	if g == nil || g.verifier == nil || g.users == nil {
		return nil, linkauth.ErrManagerNotReady
	}

	token, ok := ExtractToken(r)
	if !ok {
		return nil, linkauth.ErrCredentialMissing
	}

	ctx := r.Context()
	info, err := g.verifier.VerifySession(ctx, token, linkauth.AccessToken)
	if err != nil {
		return nil, err
	}

	user, found, err := g.users.FindUserByID(ctx, info.UserID)
	if err != nil {
		g.logger.ErrorContext(ctx, "user lookup failed", "user_id", info.UserID, "error", err)
		return nil, linkauth.ErrUserLookupFailed
	}
	if !found {
		return nil, linkauth.ErrUserNotFound
	}

	return &Principal{User: user, Session: info}, nil
}

// Handler rejects unauthenticated requests and passes the rest to next
// with the [Principal] in their context.
func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := g.Authenticate(r)
		if err != nil {
			g.logFailure(r.Context(), err)
			WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func (g *Guard) logFailure(ctx context.Context, err error) {
	if g == nil {
		return
	}
	switch linkauth.Classify(err) {
	case linkauth.KindCredentialMissing, linkauth.KindUnauthenticated:
		g.logger.DebugContext(ctx, "request rejected", "error", err)
	default:
		g.logger.WarnContext(ctx, "request could not be authenticated", "error", err)
	}
}

// ExtractToken returns the access token from the access_token cookie or,
// failing that, a bearer Authorization header.
func ExtractToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(AccessTokenCookie); err == nil && c.Value != "" {
		return c.Value, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}

// ErrorBody is the JSON body of every guard rejection.
type ErrorBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewErrorBody maps err onto its status code and public body.
func NewErrorBody(err error) (int, ErrorBody) {
	code := linkauth.HTTPStatus(err)
	status := "fail"
	if code >= http.StatusInternalServerError {
		status = "error"
	}
	return code, ErrorBody{Status: status, Message: linkauth.PublicMessage(err)}
}

// WriteError writes the uniform rejection for err.
func WriteError(w http.ResponseWriter, err error) {
	code, body := NewErrorBody(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
