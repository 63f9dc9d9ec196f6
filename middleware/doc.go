// Package middleware exposes the request guard for routes that require a
// logged-in user, as net/http middleware and as a gin handler.
//
// # Guard
//
// [Guard.Authenticate] takes the access token from the access_token
// cookie, falling back to an "Authorization: Bearer" header, verifies it
// with the session manager and resolves the user it names. [Guard.Handler]
// and [Guard.Gin] wrap that check, store the resulting [Principal] in the
// request context and answer failures with a uniform JSON body.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Manager calls. It does not
// parse tokens or touch the session registry itself, and it caches
// nothing between requests: revoking a session takes effect on the very
// next request.
package middleware
