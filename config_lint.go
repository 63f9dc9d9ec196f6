package linkauth

import (
	"bytes"
	"fmt"
	"strings"
	"time"
)

// LintSeverity ranks a [LintWarning].
type LintSeverity int

const (
	LintInfo LintSeverity = iota
	LintWarn
	LintHigh
)

func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is a configuration that validates but is probably not what
// the operator wants.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintWarnings is the result of [Config.Lint].
type LintWarnings []LintWarning

// Codes returns the warning codes in order.
func (ws LintWarnings) Codes() []string {
	out := make([]string, 0, len(ws))
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

// BySeverity returns the warnings at or above min.
func (ws LintWarnings) BySeverity(min LintSeverity) LintWarnings {
	var out LintWarnings
	for _, w := range ws {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds every warning at or above min into one error, or returns
// nil when there are none.
func (ws LintWarnings) AsError(min LintSeverity) error {
	filtered := ws.BySeverity(min)
	if len(filtered) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(filtered))
	for _, w := range filtered {
		msgs = append(msgs, fmt.Sprintf("[%s] %s: %s", w.Severity, w.Code, w.Message))
	}
	return fmt.Errorf("config lint: %s", strings.Join(msgs, "; "))
}

// Lint inspects c for risky but valid settings. It never fails.
func (c *Config) Lint() LintWarnings {
	var ws LintWarnings

	if c.Access.MaxAge >= c.Refresh.MaxAge {
		ws = append(ws, LintWarning{
			Code:     "access_not_shorter_than_refresh",
			Severity: LintWarn,
			Message:  fmt.Sprintf("access max-age %s should be shorter than refresh max-age %s", c.Access.MaxAge, c.Refresh.MaxAge),
		})
	}

	if len(c.Access.PrivateKey) > 0 && bytes.Equal(c.Access.PrivateKey, c.Refresh.PrivateKey) {
		ws = append(ws, LintWarning{
			Code:     "shared_key_pair",
			Severity: LintHigh,
			Message:  "access and refresh tokens share a signing key; only the class claim tells them apart",
		})
	}

	if !c.Rotation.RevokeOnRefresh {
		ws = append(ws, LintWarning{
			Code:     "refresh_not_single_use",
			Severity: LintWarn,
			Message:  "refresh tokens stay valid after use and can be replayed until they expire",
		})
	}

	if !c.Audit.Enabled {
		ws = append(ws, LintWarning{
			Code:     "audit_disabled",
			Severity: LintInfo,
			Message:  "audit events are not recorded",
		})
	}

	if c.Access.Leeway > 30*time.Second || c.Refresh.Leeway > 30*time.Second {
		ws = append(ws, LintWarning{
			Code:     "leeway_large",
			Severity: LintWarn,
			Message:  "clock leeway above 30s extends the life of every token",
		})
	}

	if c.Session.StoreTimeout > 5*time.Second {
		ws = append(ws, LintWarning{
			Code:     "store_timeout_long",
			Severity: LintInfo,
			Message:  fmt.Sprintf("store timeout %s holds requests open during a registry outage", c.Session.StoreTimeout),
		})
	}

	return ws
}
