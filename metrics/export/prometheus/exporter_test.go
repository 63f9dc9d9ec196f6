package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrEthical07/linkauth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type fakeSource struct {
	snapshot linkauth.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() linkauth.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                      { return f.dropped }

func scrape(t *testing.T, exp *PrometheusExporter) (int, string, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return rec.Code, rec.Header().Get("Content-Type"), string(body)
}

func TestCollectEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: linkauth.MetricsSnapshot{
			Counters:   map[linkauth.MetricID]uint64{},
			Histograms: map[linkauth.MetricID][]uint64{},
		},
	})

	if n := testutil.CollectAndCount(exp); n != 0 {
		t.Fatalf("expected no samples for disabled metrics, got %d", n)
	}
}

func TestScrapeIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: linkauth.MetricsSnapshot{
			Counters: map[linkauth.MetricID]uint64{
				linkauth.MetricIssueSuccess: 7,
			},
			Histograms: map[linkauth.MetricID][]uint64{
				linkauth.MetricVerifyLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	code, contentType, out := scrape(t, exp)
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if !strings.Contains(contentType, "text/plain") {
		t.Fatalf("expected text exposition content type, got %q", contentType)
	}
	for _, want := range []string{
		"linkauth_issue_success_total 7",
		"linkauth_issue_failure_total 0",
		`linkauth_verify_latency_seconds_bucket{le="0.005"} 1`,
		`linkauth_verify_latency_seconds_bucket{le="0.5"} 28`,
		`linkauth_verify_latency_seconds_bucket{le="+Inf"} 36`,
		"linkauth_verify_latency_seconds_count 36",
		"linkauth_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestCollectorCountMatchesDefinitions(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: linkauth.MetricsSnapshot{
			Counters: map[linkauth.MetricID]uint64{linkauth.MetricLogout: 1},
		},
	})

	// 13 counters plus the audit dropped counter; no histogram without buckets.
	if n := testutil.CollectAndCount(exp); n != 14 {
		t.Fatalf("expected 14 samples, got %d", n)
	}
	if n := testutil.CollectAndCount(exp, "linkauth_logout_total"); n != 1 {
		t.Fatalf("expected logout counter, got %d", n)
	}
}

func TestRegisterWithCustomRegistry(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: linkauth.MetricsSnapshot{
			Counters: map[linkauth.MetricID]uint64{linkauth.MetricRevoke: 4},
		},
	})

	reg := prometheus.NewRegistry()
	if err := exp.Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := exp.Register(reg); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var found bool
	for _, mf := range families {
		if mf.GetName() == "linkauth_sessions_revoked_total" {
			found = mf.GetMetric()[0].GetCounter().GetValue() == 4
		}
	}
	if !found {
		t.Fatal("expected linkauth_sessions_revoked_total=4 in gathered families")
	}
}

func TestNilManagerExportsNothing(t *testing.T) {
	exp := NewPrometheusExporter(nil)
	if n := testutil.CollectAndCount(exp); n != 0 {
		t.Fatalf("nil manager should expose nothing, got %d", n)
	}
}

func BenchmarkScrape(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: linkauth.MetricsSnapshot{
			Counters: map[linkauth.MetricID]uint64{
				linkauth.MetricIssueSuccess:   1000,
				linkauth.MetricIssueFailure:   40,
				linkauth.MetricRefreshSuccess: 800,
				linkauth.MetricRefreshFailure: 10,
				linkauth.MetricRevoke:         20,
			},
			Histograms: map[linkauth.MetricID][]uint64{
				linkauth.MetricVerifyLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})
	handler := exp.Handler()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}
