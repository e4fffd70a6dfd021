package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/assets"
	"storefront-backend/shared/pkg/models"
)

type OrdersService interface {
	ListByEmail(ctx context.Context, email string) ([]models.Order, error)
	ListForAccount(ctx context.Context, email string) ([]models.Order, error)
}

type OrdersHandler struct {
	Orders OrdersService
	Images assets.URLBuilder
	Log    zerolog.Logger
}

const thumbnailWidth = 200

type orderItemResp struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
	ImageURL   string `json:"image_url"`
	Color      string `json:"color,omitempty"`
	Size       string `json:"size,omitempty"`
}

type orderResp struct {
	ID            string          `json:"id"`
	OrderNumber   string          `json:"order_number"`
	Email         string          `json:"email"`
	PaymentStatus string          `json:"payment_status"`
	TotalCents    int64           `json:"total_cents"`
	Currency      string          `json:"currency"`
	Items         []orderItemResp `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ByEmail lists orders placed with the session email.
func (h *OrdersHandler) ByEmail(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Orders.ListByEmail)
}

// ForAccount lists orders placed with the session email or linked to the user document.
func (h *OrdersHandler) ForAccount(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.Orders.ListForAccount)
}

func (h *OrdersHandler) list(w http.ResponseWriter, r *http.Request, fetch func(context.Context, string) ([]models.Order, error)) {
	email, ok := sessionEmail(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := fetch(ctx, email)
	if err != nil {
		internalError(h.Log, w, r, err, "failed to fetch orders")
		return
	}

	out := make([]orderResp, 0, len(orders))
	for _, o := range orders {
		items := make([]orderItemResp, 0, len(o.Items))
		for _, it := range o.Items {
			items = append(items, orderItemResp{
				Name: it.Name, Quantity: it.Quantity, PriceCents: it.PriceCents,
				ImageURL: h.Images.Sized(it.ImageKey, thumbnailWidth),
				Color:    it.Color, Size: it.Size,
			})
		}
		out = append(out, orderResp{
			ID: o.ID, OrderNumber: o.OrderNumber, Email: o.Email,
			PaymentStatus: string(o.PaymentStatus), TotalCents: o.TotalCents, Currency: o.Currency,
			Items: items, CreatedAt: o.CreatedAt,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}
