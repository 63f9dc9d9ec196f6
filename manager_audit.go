package linkauth

import (
	"context"
	"errors"
	"strconv"
)

const (
	auditEventIssue   = "session_issue"
	auditEventRefresh = "session_refresh"
	auditEventRevoke  = "session_revoke"
	auditEventLogout  = "logout"
)

// AuditErrorCode is the stable, non-sensitive reason recorded on a
// failed audit event.
type AuditErrorCode string

const (
	auditErrInvalidToken          AuditErrorCode = "invalid_token"
	auditErrTokenExpired          AuditErrorCode = "token_expired"
	auditErrSessionNotFound       AuditErrorCode = "session_not_found"
	auditErrSessionMismatch       AuditErrorCode = "session_mismatch"
	auditErrInvalidUser           AuditErrorCode = "invalid_user"
	auditErrUnavailable           AuditErrorCode = "backend_unavailable"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrSessionInvalidation   AuditErrorCode = "session_invalidation_failed"
	auditErrInternal              AuditErrorCode = "internal_error"
)

func (m *Manager) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	class TokenClass,
	err error,
	metadataBuilder func() map[string]string,
) {
	if m == nil || m.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: m.clock.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		Class:     string(class),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	m.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	case errors.Is(err, ErrTokenExpired):
		return auditErrTokenExpired
	case errors.Is(err, ErrTokenMalformed),
		errors.Is(err, ErrTokenSignature),
		errors.Is(err, ErrTokenNotYetValid),
		errors.Is(err, ErrTokenClassMismatch):
		return auditErrInvalidToken
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionMismatch):
		return auditErrSessionMismatch
	case errors.Is(err, ErrInvalidUserID):
		return auditErrInvalidUser
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrSessionInvalidationFailed):
		return auditErrSessionInvalidation
	default:
		return auditErrInternal
	}
}

func itoa(n int) string { return strconv.Itoa(n) }
