package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goGuard "github.com/MrEthical07/goGuard"
)

type fakeSource struct {
	snapshot goGuard.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goGuard.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                     { return f.dropped }

func scrape(t *testing.T, exp *PrometheusExporter) (string, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body), rec
}

func TestScrapeEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters:   map[goGuard.MetricID]uint64{},
			Histograms: map[goGuard.MetricID][]uint64{},
		},
	})

	if out, _ := scrape(t, exp); strings.Contains(out, "goguard_") {
		t.Fatalf("expected no goguard series for disabled metrics, got:\n%s", out)
	}
}

func TestScrapeIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goGuard.MetricsSnapshot{
			Counters: map[goGuard.MetricID]uint64{
				goGuard.MetricLoginSuccess: 7,
			},
			Histograms: map[goGuard.MetricID][]uint64{
				goGuard.MetricRefreshLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out, rec := scrape(t, exp)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected text exposition content type, got %q", got)
	}
	for _, want := range []string{
		"goguard_login_success_total 7",
		"goguard_refresh_failure_total 0",
		`goguard_refresh_latency_seconds_bucket{le="0.005"} 1`,
		`goguard_refresh_latency_seconds_bucket{le="0.5"} 28`,
		`goguard_refresh_latency_seconds_bucket{le="+Inf"} 36`,
		"goguard_refresh_latency_seconds_count 36",
		"goguard_audit_dropped_total 2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "goguard_profile_fetch_latency_seconds") {
		t.Fatal("histogram without samples should be omitted")
	}
}

func TestCollectorFromEngine(t *testing.T) {
	engine, err := goGuard.New().
		WithConfig(func() goGuard.Config {
			cfg := goGuard.DefaultConfig()
			cfg.Transport.BaseURL = "http://127.0.0.1:1"
			return cfg
		}()).
		WithMetricsEnabled(true).
		Build(t.Context())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	engine.Navigate(t.Context(), "/dashboard/profile", "")

	out, _ := scrape(t, NewPrometheusExporter(engine))
	if !strings.Contains(out, "goguard_guard_login_redirect_total 1") {
		t.Fatalf("expected login redirect counter, got:\n%s", out)
	}
}
