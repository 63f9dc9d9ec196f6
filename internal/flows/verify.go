package flows

import (
	"context"

	"github.com/MrEthical07/linkauth/jwt"
)

// VerifyFailureKind classifies verification failures for root-level mapping.
type VerifyFailureKind int

const (
	VerifyFailureNone VerifyFailureKind = iota
	VerifyFailureToken
	VerifyFailureStore
	VerifyFailureSessionNotFound
	VerifyFailureSessionMismatch
)

// VerifyResult returns either verified claims or a classified failure.
type VerifyResult struct {
	Failure VerifyFailureKind
	Err     error
	Claims  jwt.Claims
}

type VerifySessionStore interface {
	Get(ctx context.Context, sessionID string) (string, bool, error)
}

// VerifyDeps captures verification dependencies.
type VerifyDeps struct {
	Parse        func(token string, class jwt.Class) (jwt.Claims, error)
	SessionStore VerifySessionStore
	StoreContext ContextFunc
}

// RunVerify checks token cryptographically and then requires its session
// to be live and bound to the token's subject.
func RunVerify(ctx context.Context, token string, class jwt.Class, deps VerifyDeps) VerifyResult {
	claims, err := deps.Parse(token, class)
	if err != nil {
		return VerifyResult{Failure: VerifyFailureToken, Err: err}
	}

	storeCtx, cancel := deps.StoreContext.derive(ctx)
	userID, found, err := deps.SessionStore.Get(storeCtx, claims.SessionID)
	cancel()
	if err != nil {
		return VerifyResult{Failure: VerifyFailureStore, Err: storeError(err), Claims: claims}
	}
	if !found {
		return VerifyResult{Failure: VerifyFailureSessionNotFound, Claims: claims}
	}
	if userID != claims.Subject {
		return VerifyResult{Failure: VerifyFailureSessionMismatch, Claims: claims}
	}

	return VerifyResult{Claims: claims}
}
