package httpx

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"storefront-backend/services/outbox-worker/internal/outbox"
	"storefront-backend/shared/pkg/metrics"
)

type Server struct {
	DB     outbox.DB
	Checks map[string]metrics.Check
	Log    zerolog.Logger
}

func (s *Server) Handler() http.Handler {
	r := metrics.OpsRouter(s.Checks)

	r.Get("/outbox/pending", func(w http.ResponseWriter, req *http.Request) {
		n, err := outbox.Pending(req.Context(), s.DB)
		if err != nil {
			s.Log.Error().Err(err).Msg("pending count failed")
			render.Status(req, http.StatusInternalServerError)
			render.JSON(w, req, map[string]string{"error": "db error"})
			return
		}
		render.JSON(w, req, map[string]int{"pending": n})
	})
	return r
}
