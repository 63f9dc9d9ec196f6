package flows

import (
	"context"

	"github.com/MrEthical07/linkauth/jwt"
)

// IssueFailureKind classifies issue flow failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureInvalidUser
	IssueFailureSessionID
	IssueFailureMint
	IssueFailureAccessPut
	IssueFailureRefreshPut
)

// IssueResult carries either the minted pair or failure metadata.
type IssueResult struct {
	Failure       IssueFailureKind
	Err           error
	UserID        string
	AccessToken   string
	RefreshToken  string
	AccessClaims  jwt.Claims
	RefreshClaims jwt.Claims
	// RolledBack reports that the access session was written and then
	// removed again after the refresh write failed.
	RolledBack  bool
	RollbackErr error
}

type IssueSessionStore interface {
	Put(ctx context.Context, sessionID, userID string, ttlSeconds int64) error
	DeleteMany(ctx context.Context, sessionIDs ...string) (int64, error)
}

// IssueDeps captures issue flow dependencies.
type IssueDeps struct {
	NewSessionID    func() (string, error)
	Mint            func(class jwt.Class, subject, sessionID string) (string, jwt.Claims, error)
	TTLSeconds      func(jwt.Class) int64
	SessionStore    IssueSessionStore
	StoreContext    ContextFunc
	RollbackContext ContextFunc
	Warn            func(string, ...any)
}

// RunIssue mints an access/refresh pair for userID and registers both
// sessions, access first. A failed refresh write removes the access
// session again so no valid token outlives a failed issue.
func RunIssue(ctx context.Context, userID string, deps IssueDeps) IssueResult {
	if userID == "" {
		return IssueResult{Failure: IssueFailureInvalidUser}
	}

	accessID, err := deps.NewSessionID()
	if err != nil {
		return IssueResult{Failure: IssueFailureSessionID, Err: err, UserID: userID}
	}
	refreshID, err := deps.NewSessionID()
	if err != nil {
		return IssueResult{Failure: IssueFailureSessionID, Err: err, UserID: userID}
	}

	access, accessClaims, err := deps.Mint(jwt.ClassAccess, userID, accessID)
	if err != nil {
		return IssueResult{Failure: IssueFailureMint, Err: err, UserID: userID}
	}
	refresh, refreshClaims, err := deps.Mint(jwt.ClassRefresh, userID, refreshID)
	if err != nil {
		return IssueResult{Failure: IssueFailureMint, Err: err, UserID: userID}
	}

	if err := put(ctx, deps, accessID, userID, jwt.ClassAccess); err != nil {
		return IssueResult{Failure: IssueFailureAccessPut, Err: err, UserID: userID}
	}
	if err := put(ctx, deps, refreshID, userID, jwt.ClassRefresh); err != nil {
		result := IssueResult{Failure: IssueFailureRefreshPut, Err: err, UserID: userID}
		result.RolledBack, result.RollbackErr = rollback(ctx, deps, accessID)
		if result.RollbackErr != nil && deps.Warn != nil {
			deps.Warn("linkauth: access session rollback failed",
				"session_id", accessID,
				"error", result.RollbackErr,
			)
		}
		return result
	}

	return IssueResult{
		Failure:       IssueFailureNone,
		UserID:        userID,
		AccessToken:   access,
		RefreshToken:  refresh,
		AccessClaims:  accessClaims,
		RefreshClaims: refreshClaims,
	}
}

func put(ctx context.Context, deps IssueDeps, sessionID, userID string, class jwt.Class) error {
	ctx, cancel := deps.StoreContext.derive(ctx)
	defer cancel()
	return storeError(deps.SessionStore.Put(ctx, sessionID, userID, deps.TTLSeconds(class)))
}

func rollback(ctx context.Context, deps IssueDeps, sessionID string) (bool, error) {
	ctx, cancel := deps.RollbackContext.derive(ctx)
	defer cancel()
	if _, err := deps.SessionStore.DeleteMany(ctx, sessionID); err != nil {
		return false, storeError(err)
	}
	return true, nil
}
