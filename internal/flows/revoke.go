package flows

import (
	"context"

	"github.com/MrEthical07/linkauth/jwt"
)

// RevokeResult reports how many sessions a revoke actually removed.
// Removing fewer than requested is not a failure.
type RevokeResult struct {
	SessionIDs []string
	Deleted    int64
	Err        error
}

type RevokeSessionStore interface {
	DeleteMany(ctx context.Context, sessionIDs ...string) (int64, error)
}

// RevokeDeps captures revoke flow dependencies.
type RevokeDeps struct {
	SessionStore RevokeSessionStore
	StoreContext ContextFunc
}

// RunRevoke deletes every non-empty session id in one batched call.
func RunRevoke(ctx context.Context, deps RevokeDeps, sessionIDs ...string) RevokeResult {
	ids := make([]string, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		if id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return RevokeResult{}
	}

	ctx, cancel := deps.StoreContext.derive(ctx)
	defer cancel()
	deleted, err := deps.SessionStore.DeleteMany(ctx, ids...)
	return RevokeResult{SessionIDs: ids, Deleted: deleted, Err: storeError(err)}
}

// LogoutRequest identifies the sessions to end. AccessSessionID comes
// from an already-authenticated request; RefreshToken is optional.
type LogoutRequest struct {
	UserID          string
	AccessSessionID string
	RefreshToken    string
}

// LogoutResult embeds the revoke outcome. RefreshErr records why the
// refresh token was left alone, if it was.
type LogoutResult struct {
	RevokeResult
	RefreshSessionID string
	RefreshErr       error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Inspect func(token string, class jwt.Class) (jwt.Claims, error)
	Revoke  func(ctx context.Context, sessionIDs ...string) RevokeResult
}

// RunLogout revokes the caller's access session together with the
// refresh session named by their refresh token, when that token is
// cryptographically valid and belongs to the same user.
func RunLogout(ctx context.Context, req LogoutRequest, deps LogoutDeps) LogoutResult {
	var result LogoutResult

	if req.RefreshToken != "" {
		claims, err := deps.Inspect(req.RefreshToken, jwt.ClassRefresh)
		switch {
		case err != nil:
			result.RefreshErr = err
		case claims.Subject != req.UserID:
			result.RefreshErr = errRefreshOwner
		default:
			result.RefreshSessionID = claims.SessionID
		}
	}

	result.RevokeResult = deps.Revoke(ctx, req.AccessSessionID, result.RefreshSessionID)
	return result
}
