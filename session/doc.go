// Package session provides the server-side session registry that backs
// every issued token.
//
// A session is a single mapping from an opaque session id to the user id
// it was issued for, held with a time-to-live equal to the lifetime of
// the token that carries the id. A token is only honoured while its
// session exists, which is what makes revocation immediate.
//
// # Implementations
//
// [RedisStore] is the production registry (SET EX / GET / DEL on a
// go-redis UniversalClient). [MemoryStore] is an in-process registry
// with clock-driven expiry for tests and single-process development.
//
// # TTL units
//
// Every TTL crossing this package boundary is in whole seconds. Callers
// holding a [time.Duration] convert it with [TTLSeconds].
//
// # What this package must NOT do
//
//   - Import linkauth or jwt (no upward imports).
//   - Interpret tokens or decide whether a user is authenticated.
//   - Retry failed operations; callers decide how to surface outages.
package session
