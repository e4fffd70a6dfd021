package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/services/storefront-api/internal/auth"
)

type stubParser struct {
	claims *auth.Claims
	err    error
}

func (p stubParser) Parse(string) (*auth.Claims, error) { return p.claims, p.err }

func TestRequireAuth(t *testing.T) {
	claims := &auth.Claims{Email: "a@example.com"}
	claims.Subject = "u1"

	var seen *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		parser stubParser
		want   int
	}{
		{"missing header", "", stubParser{claims: claims}, http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", stubParser{claims: claims}, http.StatusUnauthorized},
		{"empty token", "Bearer  ", stubParser{claims: claims}, http.StatusUnauthorized},
		{"invalid token", "Bearer abc", stubParser{err: auth.ErrInvalidToken}, http.StatusUnauthorized},
		{"valid", "bearer abc", stubParser{claims: claims}, http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/user/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			RequireAuth(tc.parser)(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
			if tc.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, "a@example.com", seen.Email)
			} else {
				assert.Nil(t, seen)
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			}
		})
	}
}

type memPages struct {
	mu      sync.Mutex
	data    map[string][]byte
	readErr error
}

func (m *memPages) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, false, m.readErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memPages) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), val...)
	return nil
}

func TestPageCacheStoresAndServes(t *testing.T) {
	store := &memPages{data: map[string][]byte{}}
	calls := 0
	h := PageCache(store, time.Minute, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"slug":"tops"}]`))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Contains(t, store.data, "page:/api/v1/categories")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, `[{"slug":"tops"}]`, rec.Body.String())
	assert.Equal(t, 1, calls)
}

func TestPageCacheSkipsErrorsAndNonGet(t *testing.T) {
	store := &memPages{data: map[string][]byte{}}
	h := PageCache(store, time.Minute, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"product not found"}`))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/products/nope", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/v1/products/nope", nil))
	assert.Empty(t, store.data)
}

func TestPageCacheReadErrorFallsThrough(t *testing.T) {
	store := &memPages{data: map[string][]byte{}, readErr: errors.New("redis down")}
	h := PageCache(store, time.Minute, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/collections", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `[]`, rec.Body.String())
}

func TestRequestLogWritesLine(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)
	h := chimw.RequestID(RequestLog(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/x"`)
	assert.Contains(t, buf.String(), `"request_id":`)
}
