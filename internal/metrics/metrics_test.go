package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsScrape(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/transactions", "POST", 201, 12*time.Millisecond)
	m.CountMutation("transaction.add")
	m.CountImport(5, 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"marketflow_http_request_duration_seconds",
		`marketflow_mutations_total{kind="transaction.add"} 1`,
		"marketflow_import_rows_total 5",
		"marketflow_import_skipped_rows_total 2",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("scrape output missing %q", want)
		}
	}
}

func TestNilMetricsNoOp(t *testing.T) {
	var m *Metrics
	// Must not panic.
	m.ObserveRequest("/", "GET", 200, time.Millisecond)
	m.CountMutation("x")
	m.CountImport(1, 1)
}
