package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware(t *testing.T) {

	httpRequestsTotal.Reset()
	httpRequestDuration.Reset()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r := chi.NewRouter()
	r.Use(MetricsMiddleware())
	r.Get("/routes/{routeID}/liquidation", testHandler)

	req := httptest.NewRequest(http.MethodGet, "/routes/7/liquidation", nil)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status code %d, got %d", http.StatusOK, rec.Code)
	}

	expectedTotal := `
		# HELP cobro_engine_http_requests_total Total number of HTTP requests.
		# TYPE cobro_engine_http_requests_total counter
		cobro_engine_http_requests_total{method="GET",path="/routes/{routeID}/liquidation",status_code="200"} 1
	`
	if err := testutil.CollectAndCompare(httpRequestsTotal, strings.NewReader(expectedTotal)); err != nil {
		t.Errorf("unexpected metrics for cobro_engine_http_requests_total: %v", err)
	}
}
