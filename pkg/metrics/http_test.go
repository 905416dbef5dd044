package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsNilSafe(t *testing.T) {
	var m *HTTPMetrics
	m.Observe(http.MethodGet, "/x", http.StatusOK, time.Millisecond)
	NewHTTPMetrics(nil).Observe(http.MethodGet, "/x", http.StatusOK, time.Millisecond)
}

func TestHTTPMetricsCountsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe(http.MethodPost, "/api/v1/invoices", http.StatusCreated, 10*time.Millisecond)
	m.Observe(http.MethodPost, "/api/v1/invoices", http.StatusCreated, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	value, err := fetchCounterValue(mfs, "stockledger_http_requests_total", "route", "/api/v1/invoices")
	if err != nil {
		t.Fatalf("fetch counter: %v", err)
	}
	if value != 2 {
		t.Fatalf("expected 2 requests, got %v", value)
	}
}
