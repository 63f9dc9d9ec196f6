package flows

import (
	"context"

	"github.com/MrEthical07/linkauth/jwt"
)

// Service is the centralized flow runner built once by the root manager.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Verify.Parse != nil && s.deps.Issue.Mint != nil
}

func (s Service) Issue(ctx context.Context, userID string) IssueResult {
	return RunIssue(ctx, userID, s.deps.Issue)
}

func (s Service) Verify(ctx context.Context, token string, class jwt.Class) VerifyResult {
	return RunVerify(ctx, token, class, s.deps.Verify)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Revoke(ctx context.Context, sessionIDs ...string) RevokeResult {
	return RunRevoke(ctx, s.deps.Revoke, sessionIDs...)
}

func (s Service) Logout(ctx context.Context, req LogoutRequest) LogoutResult {
	return RunLogout(ctx, req, s.deps.Logout)
}
