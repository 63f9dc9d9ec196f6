package linkauth

import (
	"context"
	"io"
	"log/slog"
	"time"

	internalaudit "github.com/MrEthical07/linkauth/internal/audit"
	"github.com/MrEthical07/linkauth/jwt"
)

// TokenClass distinguishes access tokens from refresh tokens.
type TokenClass = jwt.Class

const (
	// AccessToken tokens are presented on every protected request.
	AccessToken TokenClass = jwt.ClassAccess
	// RefreshToken tokens are only exchanged for a new pair.
	RefreshToken TokenClass = jwt.ClassRefresh
)

// TokenPair is produced by [Manager.Issue] and [Manager.Refresh]. The two
// tokens are backed by distinct sessions and can be revoked independently.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessSessionID  string
	RefreshSessionID string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// SessionInfo describes a verified token whose session is live.
type SessionInfo struct {
	UserID    string
	SessionID string
	Class     TokenClass
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// User is the account record the guard resolves for a verified session.
// PasswordHash never leaves the server; see the httpapi response filter.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserProvider loads users by id. found=false with a nil error means the
// user no longer exists; a non-nil error means the lookup itself failed.
type UserProvider interface {
	FindUserByID(ctx context.Context, id string) (user User, found bool, err error)
}

// LogoutRequest names the sessions a logout ends. AccessSessionID comes
// from the authenticated request; RefreshToken is optional and only
// honoured when it verifies and belongs to UserID.
type LogoutRequest struct {
	UserID          string
	AccessSessionID string
	RefreshToken    string
}

// AuditEvent is a structured audit record emitted by the manager.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the manager's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// SlogSink is an [AuditSink] that logs events through a *slog.Logger.
type SlogSink = internalaudit.SlogSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewSlogSink creates a [SlogSink] that logs to log at info level.
func NewSlogSink(log *slog.Logger) *SlogSink {
	return internalaudit.NewSlogSink(log)
}
