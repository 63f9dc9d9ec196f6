package flows

import (
	"context"
	"time"
)

// Deps groups flow dependency sets. The root manager builds this once and
// delegates request methods to the matching flow implementation.
type Deps struct {
	Issue   IssueDeps
	Verify  VerifyDeps
	Refresh RefreshDeps
	Revoke  RevokeDeps
	Logout  LogoutDeps
}

// ContextFunc derives the context for a single store round trip.
type ContextFunc func(context.Context) (context.Context, context.CancelFunc)

// Timeout returns a ContextFunc that bounds each call by d.
func Timeout(d time.Duration) ContextFunc {
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(ctx, d)
	}
}

// Detached returns a ContextFunc that ignores the parent's cancellation
// but keeps its values, bounded by d. Used for compensating writes that
// must run even after the caller has gone away.
func Detached(d time.Duration) ContextFunc {
	return func(ctx context.Context) (context.Context, context.CancelFunc) {
		return context.WithTimeout(context.WithoutCancel(ctx), d)
	}
}

func (f ContextFunc) derive(ctx context.Context) (context.Context, context.CancelFunc) {
	if f == nil {
		return ctx, func() {}
	}
	return f(ctx)
}
