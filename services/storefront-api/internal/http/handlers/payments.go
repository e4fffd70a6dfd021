package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/payments"
)

type PaymentsHandler struct {
	Provider payments.Provider
	Log      zerolog.Logger
}

func intentID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		writeError(w, r, http.StatusBadRequest, "payment intent id is required")
		return "", false
	}
	return id, true
}

func (h *PaymentsHandler) Status(w http.ResponseWriter, r *http.Request) {
	id, ok := intentID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	in, err := h.Provider.GetIntent(ctx, id)
	if err != nil {
		h.fail(w, r, err, id, "failed to fetch payment intent status")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"id": in.ID, "status": in.Status})
}

func (h *PaymentsHandler) Details(w http.ResponseWriter, r *http.Request) {
	id, ok := intentID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	in, err := h.Provider.GetIntent(ctx, id)
	if err != nil {
		h.fail(w, r, err, id, "failed to fetch payment intent")
		return
	}
	writeJSON(w, r, http.StatusOK, in)
}

type cancelReq struct {
	Reason string `json:"reason"`
}

func (h *PaymentsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := intentID(w, r)
	if !ok {
		return
	}
	var req cancelReq
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	in, err := h.Provider.CancelIntent(ctx, id, strings.TrimSpace(req.Reason))
	if errors.Is(err, payments.ErrInvalidCancelCause) {
		writeError(w, r, http.StatusBadRequest, "unknown cancellation reason")
		return
	}
	if err != nil {
		h.fail(w, r, err, id, "failed to cancel payment intent")
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"id": in.ID, "status": in.Status})
}

func (h *PaymentsHandler) fail(w http.ResponseWriter, r *http.Request, err error, id, msg string) {
	internalError(h.Log.With().Str("provider", h.Provider.Name()).Str("payment_intent", id).Logger(), w, r, err, msg)
}
