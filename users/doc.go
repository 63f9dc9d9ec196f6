// Package users persists the accounts that sessions are issued to.
//
// [PostgresStore] is the production store over a pgx pool; [MemoryStore]
// backs tests and the load-test harness. Both implement
// linkauth.UserProvider, so either can be handed to the request guard.
package users
