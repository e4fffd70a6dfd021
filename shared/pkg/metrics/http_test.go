package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware("metrics-test"))
	r.Get("/products/{slug}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, slug := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/"+slug, nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test", http.MethodGet, "/products/{slug}", "404"))
	assert.Equal(t, float64(2), got)
}

func TestMiddlewareImplicitOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware("metrics-test-ok"))
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("metrics-test-ok", http.MethodGet, "/ping", "200"))
	assert.Equal(t, float64(1), got)
}

func TestOpsRouterReady(t *testing.T) {
	failing := OpsRouter(map[string]Check{
		"postgres": func(context.Context) error { return errors.New("down") },
	})
	rec := httptest.NewRecorder()
	failing.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	healthy := OpsRouter(map[string]Check{
		"postgres": func(context.Context) error { return nil },
	})
	rec = httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "ok", rec.Body.String())
}
