// Package rate throttles failed logins with fixed-window Redis counters.
//
// Each failed attempt INCRs a counter keyed by the normalized email and,
// optionally, the client IP. The first hit in a window sets its EXPIRE.
// Keys:
//   - <prefix>:rl:u:<email>
//   - <prefix>:rl:ip:<ip>
package rate
