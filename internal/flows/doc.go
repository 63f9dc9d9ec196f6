// Package flows contains pure-function orchestrators for every Manager operation.
//
// Each flow function (RunIssue, RunVerify, RunRefresh, RunRevoke,
// RunLogout) accepts a typed dependency struct and returns a result
// carrying either the payload or a classified failure kind. The root
// package maps failure kinds onto its public error taxonomy, so this
// package never decides what a caller sees.
//
// # Architecture boundaries
//
// Flow functions coordinate the token codec and the session store. They
// do NOT own either: ownership, timeouts, metrics and audit stay with the
// Manager, which injects them through the Deps structs.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import linkauth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency interfaces.
package flows
