package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Reregister(t *testing.T) {
	registry := prometheus.NewRegistry()

	first := NewMetrics("mmproxy", registry)
	second := NewMetrics("mmproxy", registry)

	first.Templates.Inc()
	second.Templates.Inc()
	if v := testutil.ToFloat64(first.Templates); v != 2 {
		t.Fatalf("expected shared counter, got %v", v)
	}

	rec := httptest.NewRecorder()
	MetricsHandler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "mmproxy_templates_total 2") {
		t.Fatalf("unexpected exposition: %s", body)
	}
}
