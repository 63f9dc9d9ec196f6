package flows

import (
	"context"

	"github.com/MrEthical07/linkauth/jwt"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureVerify
	RefreshFailureConsume
	RefreshFailureConsumed
	RefreshFailureIssue
)

// RefreshResult carries either the new pair or failure metadata. Verify
// and Issue hold the nested flow results for finer mapping.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	UserID       string
	OldSessionID string
	Verify       VerifyResult
	Issue        IssueResult
	// Discarded reports that a freshly issued pair was revoked again
	// because the old refresh session could not be consumed.
	Discarded  bool
	DiscardErr error
}

type RefreshSessionStore interface {
	DeleteMany(ctx context.Context, sessionIDs ...string) (int64, error)
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Verify          func(ctx context.Context, token string, class jwt.Class) VerifyResult
	Issue           func(ctx context.Context, userID string) IssueResult
	RevokeOnRefresh bool
	SessionStore    RefreshSessionStore
	StoreContext    ContextFunc
	RollbackContext ContextFunc
	Warn            func(string, ...any)
}

// RunRefresh verifies a refresh token and issues a brand-new pair for its
// subject. With RevokeOnRefresh the old refresh session is consumed only
// after the new pair is registered, so a failed issue leaves the presented
// token usable. Of two concurrent refreshes with the same token only the
// one whose delete removed the key keeps its pair; the loser's pair is
// revoked again.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	verified := deps.Verify(ctx, refreshToken, jwt.ClassRefresh)
	if verified.Failure != VerifyFailureNone {
		return RefreshResult{
			Failure: RefreshFailureVerify,
			Err:     verified.Err,
			Verify:  verified,
		}
	}

	result := RefreshResult{
		UserID:       verified.Claims.Subject,
		OldSessionID: verified.Claims.SessionID,
		Verify:       verified,
	}

	result.Issue = deps.Issue(ctx, result.UserID)
	if result.Issue.Failure != IssueFailureNone {
		result.Failure = RefreshFailureIssue
		result.Err = result.Issue.Err
		return result
	}
	if !deps.RevokeOnRefresh {
		return result
	}

	storeCtx, cancel := deps.StoreContext.derive(ctx)
	deleted, err := deps.SessionStore.DeleteMany(storeCtx, result.OldSessionID)
	cancel()
	switch {
	case err != nil:
		result.Failure = RefreshFailureConsume
		result.Err = storeError(err)
	case deleted == 0:
		result.Failure = RefreshFailureConsumed
	default:
		return result
	}

	result.Discarded, result.DiscardErr = discard(ctx, deps, result.Issue)
	if result.DiscardErr != nil && deps.Warn != nil {
		deps.Warn("linkauth: discarding unused refresh pair failed",
			"access_session_id", result.Issue.AccessClaims.SessionID,
			"refresh_session_id", result.Issue.RefreshClaims.SessionID,
			"error", result.DiscardErr,
		)
	}
	return result
}

func discard(ctx context.Context, deps RefreshDeps, issued IssueResult) (bool, error) {
	ctx, cancel := deps.RollbackContext.derive(ctx)
	defer cancel()
	_, err := deps.SessionStore.DeleteMany(ctx, issued.AccessClaims.SessionID, issued.RefreshClaims.SessionID)
	if err != nil {
		return false, storeError(err)
	}
	return true, nil
}
