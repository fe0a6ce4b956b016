package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dosada05/chess-tournament/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMetricsUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(Metrics(m))
	r.Get("/clubs/{clubID}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, path := range []string{"/clubs/1", "/clubs/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `chess_http_requests_total{method="GET",route="/clubs/{clubID}",status="418"} 2`)
}
