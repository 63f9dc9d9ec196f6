// Package linkauth provides the session-authentication core of the short-link
// API: paired access/refresh bearer tokens signed with per-class asymmetric
// keys, a revocable server-side session registry, and the verification path
// every protected endpoint depends on.
//
// The package is designed for concurrent server workloads: [Manager] methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build]. Configuration and key material are parsed once and are
// immutable for the lifetime of the Manager.
//
// # Architecture boundaries
//
// linkauth is the public surface. It exposes [Manager], [Builder], [Config],
// the error taxonomy and value types ([TokenPair], [SessionInfo], [User]).
// Flow orchestration and audit dispatch live under internal/; token
// signing lives in jwt; the session registry lives in session.
//
// # What this package must NOT do
//
//   - Treat a store timeout or outage as "session absent".
//   - Reveal to callers whether a token was expired, revoked or never issued.
//   - Import middleware, users or any package that re-imports linkauth.
//
// # Performance contract
//
// VerifySession is the hot path: one signature verification and exactly one
// store round trip. Issue performs two sequenced writes; Refresh adds one
// delete when single-use rotation is enabled; Revoke is one batched delete.
package linkauth
