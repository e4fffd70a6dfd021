package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/services/storefront-api/internal/service"
	"storefront-backend/shared/pkg/models"
)

type CartStore interface {
	Get(ctx context.Context, email string) (models.CartState, error)
	Replace(ctx context.Context, email string, items []models.CartItem, at time.Time) error
	Clear(ctx context.Context, email string, at time.Time) error
}

type CartHandler struct {
	Carts CartStore
	Log   zerolog.Logger
	Now   func() time.Time
}

const maxCartItems = 100

func (h *CartHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

type cartReq struct {
	Email string            `json:"email"`
	Items []models.CartItem `json:"items"`
}

func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	var req cartReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	email, err := service.NormalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}

	at := h.now()
	if err := h.Carts.Clear(r.Context(), email, at); err != nil {
		internalError(h.Log, w, r, err, "failed to clear cart")
		return
	}
	writeJSON(w, r, http.StatusOK, models.CartState{Email: email, Items: []models.CartItem{}, LastClearedAt: &at, UpdatedAt: at})
}

func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	email, err := service.NormalizeEmail(r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	c, err := h.Carts.Get(r.Context(), email)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "cart not found")
		return
	}
	if err != nil {
		internalError(h.Log, w, r, err, "failed to fetch cart")
		return
	}
	writeJSON(w, r, http.StatusOK, c)
}

func (h *CartHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var req cartReq
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "bad json")
		return
	}
	email, err := service.NormalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "email is required")
		return
	}
	if len(req.Items) > maxCartItems {
		writeError(w, r, http.StatusBadRequest, "too many items")
		return
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity <= 0 || it.PriceCents < 0 {
			writeError(w, r, http.StatusBadRequest, "invalid items")
			return
		}
	}
	if req.Items == nil {
		req.Items = []models.CartItem{}
	}

	at := h.now()
	if err := h.Carts.Replace(r.Context(), email, req.Items, at); err != nil {
		internalError(h.Log, w, r, err, "failed to save cart")
		return
	}
	writeJSON(w, r, http.StatusOK, models.CartState{Email: email, Items: req.Items, UpdatedAt: at})
}
