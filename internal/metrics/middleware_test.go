package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	RegisterHTTPMetrics()
	RegisterEmbeddingMetrics()
	RegisterPipelineMetrics()
	os.Exit(m.Run())
}

func TestMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/v1/search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/search", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/v1/search", "200")); v < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", v)
	}
	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
	if v := testutil.ToFloat64(httpInFlight); v != 0 {
		t.Errorf("expected no in-flight requests after completion, got %f", v)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	r.Post("/v1/ingest", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	tests := []struct {
		method, path, status string
	}{
		{http.MethodGet, "/health", "503"},
		{http.MethodPost, "/v1/ingest", "422"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, http.NoBody))

			if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status)); v < 1 {
				t.Errorf("expected requests_total for %s %s >= 1, got %f", tc.path, tc.status, v)
			}
		})
	}
}

func TestRoutePattern_NoChiContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/raw", http.NoBody)
	if got := routePattern(req); got != "unknown" {
		t.Errorf("expected unknown, got %q", got)
	}
}

func TestNormalizePath(t *testing.T) {
	if normalizePath("") != "unknown" {
		t.Error("empty pattern must map to unknown")
	}
	if normalizePath("/v1/shortlist") != "/v1/shortlist" {
		t.Error("pattern must pass through")
	}
}
