package internaldefs

import (
	"github.com/MrEthical07/linkauth"
)

// CounterDef binds a manager counter to its exported name.
type CounterDef struct {
	ID   linkauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a manager histogram to its exported name.
type HistogramDef struct {
	ID   linkauth.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter exported for dispatcher backpressure.
const AuditDroppedName = "linkauth_audit_dropped_total"

// AuditDroppedHelp describes AuditDroppedName.
const AuditDroppedHelp = "Dropped audit events due to dispatcher backpressure."

// CounterDefs lists every exported counter in snapshot order.
var CounterDefs = []CounterDef{
	{ID: linkauth.MetricIssueSuccess, Name: "linkauth_issue_success_total", Help: "Token pairs issued with both sessions registered."},
	{ID: linkauth.MetricIssueFailure, Name: "linkauth_issue_failure_total", Help: "Failed issue operations."},
	{ID: linkauth.MetricIssueRollback, Name: "linkauth_issue_rollback_total", Help: "Access sessions rolled back after a failed refresh write."},
	{ID: linkauth.MetricVerifySuccess, Name: "linkauth_verify_success_total", Help: "Tokens that passed verification."},
	{ID: linkauth.MetricVerifyFailure, Name: "linkauth_verify_failure_total", Help: "Tokens rejected by verification."},
	{ID: linkauth.MetricSessionNotFound, Name: "linkauth_session_not_found_total", Help: "Verifications whose session was absent."},
	{ID: linkauth.MetricSessionMismatch, Name: "linkauth_session_mismatch_total", Help: "Verifications whose session named another user."},
	{ID: linkauth.MetricStoreUnavailable, Name: "linkauth_store_unavailable_total", Help: "Operations failed by an unreachable session store."},
	{ID: linkauth.MetricRefreshSuccess, Name: "linkauth_refresh_success_total", Help: "Successful refresh operations."},
	{ID: linkauth.MetricRefreshFailure, Name: "linkauth_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: linkauth.MetricRefreshConsumed, Name: "linkauth_refresh_consumed_total", Help: "Refresh attempts that found the token already used."},
	{ID: linkauth.MetricRevoke, Name: "linkauth_sessions_revoked_total", Help: "Sessions removed by revoke and logout."},
	{ID: linkauth.MetricLogout, Name: "linkauth_logout_total", Help: "Logout operations."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: linkauth.MetricVerifyLatency, Name: "linkauth_verify_latency_seconds", Help: "Session verification latency."},
}

// UpperBounds are the finite bucket boundaries in seconds. The eighth
// bucket is +Inf.
var UpperBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, padding
// with zeros or dropping extra entries.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
