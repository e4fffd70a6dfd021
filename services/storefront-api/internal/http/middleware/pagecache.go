package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"storefront-backend/shared/pkg/cache"
)

type PageStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// PageCache serves GET responses from the store keyed by request path and
// stores successful JSON responses for ttl. Cache errors never fail the request.
func PageCache(store PageStore, ttl time.Duration, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}
			key := cache.PageKey(r.URL.Path)

			body, ok, err := store.Get(r.Context(), key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("page cache read failed")
			}
			if ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write(body)
				return
			}

			var buf bytes.Buffer
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			ww.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(ww, r)

			if ww.Status() != http.StatusOK || buf.Len() == 0 {
				return
			}
			if err := store.Set(context.WithoutCancel(r.Context()), key, buf.Bytes(), ttl); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("page cache write failed")
			}
		})
	}
}
