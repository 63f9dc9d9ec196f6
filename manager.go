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
)

// Manager issues, verifies, refreshes and revokes session-backed token
// pairs. Build one with [New] and share it; it is safe for concurrent use.
//
// A token is accepted only when its signature, class and expiry check out
// AND its session id is still registered for the token's subject, so
// deleting a session revokes the token immediately.
type Manager struct {
	config  Config
	codec   *jwt.Codec
	store   session.Store
	clock   Clock
	ids     IDGenerator
	flows   flows.Service
	audit   *internalaudit.Dispatcher
	metrics *Metrics
	logger  *slog.Logger
}

func (m *Manager) ready() bool {
	return m != nil && m.flows.Initialized()
}

// Issue mints a fresh access/refresh pair for userID and registers both
// sessions. On failure no token from this call is usable.
func (m *Manager) Issue(ctx context.Context, userID string) (TokenPair, error) {
	if !m.ready() {
		return TokenPair{}, ErrManagerNotReady
	}

	res := m.flows.Issue(ctx, userID)
	if res.RolledBack {
		m.metrics.Inc(MetricIssueRollback)
	}
	if res.Failure != flows.IssueFailureNone {
		err := issueError(res)
		m.metrics.Inc(MetricIssueFailure)
		m.countUnavailable(err)
		m.emitAudit(ctx, auditEventIssue, false, userID, "", "", err, nil)
		return TokenPair{}, err
	}

	m.metrics.Inc(MetricIssueSuccess)
	m.emitAudit(ctx, auditEventIssue, true, userID, res.AccessClaims.SessionID, "", nil, nil)
	return pairFromIssue(res), nil
}

// Verify checks token as class and returns its subject.
func (m *Manager) Verify(ctx context.Context, token string, class TokenClass) (string, error) {
	info, err := m.verify(ctx, token, class)
	if err != nil {
		return "", err
	}
	return info.UserID, nil
}

// VerifySession checks token as class and returns the session it is
// bound to.
func (m *Manager) VerifySession(ctx context.Context, token string, class TokenClass) (SessionInfo, error) {
	start := time.Now()
	info, err := m.verify(ctx, token, class)
	if m != nil {
		m.metrics.Observe(MetricVerifyLatency, time.Since(start))
	}
	return info, err
}

func (m *Manager) verify(ctx context.Context, token string, class TokenClass) (SessionInfo, error) {
	if !m.ready() {
		return SessionInfo{}, ErrManagerNotReady
	}

	res := m.flows.Verify(ctx, token, class)
	if res.Failure != flows.VerifyFailureNone {
		err := verifyError(res)
		m.metrics.Inc(MetricVerifyFailure)
		switch res.Failure {
		case flows.VerifyFailureSessionNotFound:
			m.metrics.Inc(MetricSessionNotFound)
		case flows.VerifyFailureSessionMismatch:
			m.metrics.Inc(MetricSessionMismatch)
			m.logger.WarnContext(ctx, "session bound to another user",
				"session_id", res.Claims.SessionID,
				"subject", res.Claims.Subject,
			)
		case flows.VerifyFailureStore:
			m.metrics.Inc(MetricStoreUnavailable)
			m.logger.ErrorContext(ctx, "session lookup failed", "error", res.Err)
		}
		return SessionInfo{}, err
	}

	m.metrics.Inc(MetricVerifySuccess)
	return sessionInfo(res.Claims), nil
}

// Refresh exchanges a valid refresh token for a brand-new pair. With
// Rotation.RevokeOnRefresh the presented token's session is consumed once
// the new pair is registered, and of several concurrent refreshes with it
// at most one succeeds. A store failure leaves the presented token usable.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	if !m.ready() {
		return TokenPair{}, ErrManagerNotReady
	}

	res := m.flows.Refresh(ctx, refreshToken)
	if res.Issue.RolledBack || res.Discarded {
		m.metrics.Inc(MetricIssueRollback)
	}
	if res.Failure != flows.RefreshFailureNone {
		err := refreshError(res)
		m.metrics.Inc(MetricRefreshFailure)
		m.countUnavailable(err)
		if res.Failure == flows.RefreshFailureConsumed {
			m.metrics.Inc(MetricRefreshConsumed)
			m.logger.WarnContext(ctx, "refresh token already consumed",
				"user_id", res.UserID,
				"session_id", res.OldSessionID,
			)
		}
		m.emitAudit(ctx, auditEventRefresh, false, res.UserID, res.OldSessionID, RefreshToken, err, nil)
		return TokenPair{}, err
	}

	m.metrics.Inc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditEventRefresh, true, res.UserID, res.Issue.RefreshClaims.SessionID, RefreshToken, nil, func() map[string]string {
		return map[string]string{"previous_session_id": res.OldSessionID}
	})
	return pairFromIssue(res.Issue), nil
}

// Revoke deletes the given sessions in one batch. Ids that are already
// gone, or empty, are not an error.
func (m *Manager) Revoke(ctx context.Context, sessionIDs ...string) error {
	if !m.ready() {
		return ErrManagerNotReady
	}

	res := m.flows.Revoke(ctx, sessionIDs...)
	if res.Err != nil {
		err := errors.Join(ErrSessionInvalidationFailed, res.Err)
		m.countUnavailable(err)
		m.emitAudit(ctx, auditEventRevoke, false, "", "", "", err, nil)
		return err
	}

	m.metrics.Add(MetricRevoke, uint64(res.Deleted))
	if len(res.SessionIDs) > 0 {
		m.emitAudit(ctx, auditEventRevoke, true, "", "", "", nil, func() map[string]string {
			return map[string]string{"requested": itoa(len(res.SessionIDs)), "deleted": itoa(int(res.Deleted))}
		})
	}
	return nil
}

// Logout ends the access session named in req and, when req.RefreshToken
// verifies and belongs to req.UserID, its refresh session too. A refresh
// token that is missing, invalid or foreign is left alone and does not
// fail the logout.
func (m *Manager) Logout(ctx context.Context, req LogoutRequest) error {
	if !m.ready() {
		return ErrManagerNotReady
	}

	res := m.flows.Logout(ctx, flows.LogoutRequest{
		UserID:          req.UserID,
		AccessSessionID: req.AccessSessionID,
		RefreshToken:    req.RefreshToken,
	})
	m.metrics.Inc(MetricLogout)

	if res.RefreshErr != nil {
		m.logger.InfoContext(ctx, "logout kept refresh session",
			"user_id", req.UserID,
			"owner_mismatch", flows.IsRefreshOwnerMismatch(res.RefreshErr),
			"error", res.RefreshErr,
		)
	}
	if res.Err != nil {
		err := errors.Join(ErrSessionInvalidationFailed, res.Err)
		m.countUnavailable(err)
		m.emitAudit(ctx, auditEventLogout, false, req.UserID, req.AccessSessionID, AccessToken, err, nil)
		return err
	}

	m.metrics.Add(MetricRevoke, uint64(res.Deleted))
	m.emitAudit(ctx, auditEventLogout, true, req.UserID, req.AccessSessionID, AccessToken, nil, func() map[string]string {
		if res.RefreshSessionID == "" {
			return nil
		}
		return map[string]string{"refresh_session_id": res.RefreshSessionID}
	})
	return nil
}

// Inspect performs only the cryptographic checks on token. It never
// touches the session registry, so a revoked token can still inspect
// cleanly; use [Manager.Verify] for access decisions.
func (m *Manager) Inspect(token string, class TokenClass) (jwt.Claims, error) {
	if !m.ready() {
		return jwt.Claims{}, ErrManagerNotReady
	}
	return m.codec.Parse(token, class)
}

// MaxAge returns the configured lifetime of class.
func (m *Manager) MaxAge(class TokenClass) time.Duration {
	if !m.ready() {
		return 0
	}
	return m.codec.MaxAge(class)
}

// Ping reports the session registry round trip when the store supports it.
func (m *Manager) Ping(ctx context.Context) (time.Duration, error) {
	if !m.ready() {
		return 0, ErrManagerNotReady
	}
	p, ok := m.store.(session.Pinger)
	if !ok {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, m.config.Session.StoreTimeout)
	defer cancel()
	return p.Ping(ctx)
}

// Close drains the audit dispatcher.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	if m.audit != nil {
		m.audit.Close()
	}
}

// AuditDropped returns the number of audit events lost to backpressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot copies the manager counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

func (m *Manager) countUnavailable(err error) {
	if errors.Is(err, ErrStoreUnavailable) {
		m.metrics.Inc(MetricStoreUnavailable)
	}
}

func pairFromIssue(res flows.IssueResult) TokenPair {
	return TokenPair{
		AccessToken:      res.AccessToken,
		RefreshToken:     res.RefreshToken,
		AccessSessionID:  res.AccessClaims.SessionID,
		RefreshSessionID: res.RefreshClaims.SessionID,
		AccessExpiresAt:  res.AccessClaims.ExpiresAt,
		RefreshExpiresAt: res.RefreshClaims.ExpiresAt,
	}
}

func sessionInfo(c jwt.Claims) SessionInfo {
	return SessionInfo{
		UserID:    c.Subject,
		SessionID: c.SessionID,
		Class:     c.Class,
		IssuedAt:  c.IssuedAt,
		ExpiresAt: c.ExpiresAt,
	}
}

func issueError(res flows.IssueResult) error {
	switch res.Failure {
	case flows.IssueFailureInvalidUser:
		return ErrInvalidUserID
	default:
		return errors.Join(ErrSessionCreationFailed, res.Err)
	}
}

func verifyError(res flows.VerifyResult) error {
	switch res.Failure {
	case flows.VerifyFailureToken, flows.VerifyFailureStore:
		return res.Err
	case flows.VerifyFailureSessionNotFound:
		return ErrSessionNotFound
	case flows.VerifyFailureSessionMismatch:
		return ErrSessionMismatch
	default:
		return ErrManagerNotReady
	}
}

func refreshError(res flows.RefreshResult) error {
	switch res.Failure {
	case flows.RefreshFailureVerify:
		return verifyError(res.Verify)
	case flows.RefreshFailureConsume:
		return errors.Join(ErrSessionInvalidationFailed, res.Err)
	case flows.RefreshFailureConsumed:
		return ErrSessionNotFound
	case flows.RefreshFailureIssue:
		return issueError(res.Issue)
	default:
		return ErrManagerNotReady
	}
}
