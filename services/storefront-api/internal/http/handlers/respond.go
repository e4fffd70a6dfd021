package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/auth"
	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/services/storefront-api/internal/service"
)

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxJSONBody), v)
}

// internalError logs the cause and answers with a message that carries no detail.
func internalError(log zerolog.Logger, w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().
		Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg(msg)
	writeError(w, r, http.StatusInternalServerError, msg)
}

// sessionEmail returns the email of the authenticated caller or answers 401.
func sessionEmail(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok || claims.Email == "" {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	return claims.Email, true
}

// userError maps the errors of user-document operations.
func userError(log zerolog.Logger, w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrAddressNotFound):
		writeError(w, r, http.StatusNotFound, "address not found")
	case errors.Is(err, repo.ErrVersionConflict):
		writeError(w, r, http.StatusConflict, "profile was modified concurrently, please retry")
	default:
		internalError(log, w, r, err, msg)
	}
}
