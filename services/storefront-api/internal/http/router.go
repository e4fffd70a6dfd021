package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/http/handlers"
	mw "storefront-backend/services/storefront-api/internal/http/middleware"
	"storefront-backend/shared/pkg/metrics"
)

type Handlers struct {
	Health   http.HandlerFunc
	Catalog  *handlers.CatalogHandler
	Auth     *handlers.AuthHandler
	Orders   *handlers.OrdersHandler
	Account  *handlers.AccountHandler
	Cart     *handlers.CartHandler
	Payments *handlers.PaymentsHandler

	Revalidate http.Handler
	// Dev is mounted only when non-nil.
	Dev *handlers.DevHandler

	Tokens    mw.TokenParser
	PageCache func(http.Handler) http.Handler
	Log       zerolog.Logger
}

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.RequestLog(h.Log))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware("storefront-api"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/health", h.Health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if h.PageCache != nil {
				r.Use(h.PageCache)
			}
			r.Get("/categories", h.Catalog.Categories)
			r.Get("/categories/{slug}/products", h.Catalog.CategoryProducts)
			r.Get("/collections", h.Catalog.Collections)
			r.Get("/products/{slug}", h.Catalog.Product)
		})

		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/check-user", h.Auth.CheckUser)
		r.Post("/auth/forgot-password", h.Auth.ForgotPassword)
		r.Post("/auth/reset-password", h.Auth.ResetPassword)

		r.Post("/cart/clear", h.Cart.Clear)
		r.Get("/cart", h.Cart.Get)
		r.Put("/cart", h.Cart.Replace)

		r.Get("/payments/intents/{id}/status", h.Payments.Status)
		r.Get("/payments/intents/{id}", h.Payments.Details)
		r.Post("/payments/intents/{id}/cancel", h.Payments.Cancel)

		r.Method(http.MethodPost, "/revalidate", h.Revalidate)
		if h.Dev != nil {
			r.Post("/dev/reset-test-user", h.Dev.ResetTestUser)
		}

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireAuth(h.Tokens))
			r.Get("/orders", h.Orders.ByEmail)
			r.Get("/user/orders", h.Orders.ForAccount)
			r.Get("/user/profile", h.Account.Profile)
			r.Patch("/user/profile", h.Account.UpdateProfile)
			r.Post("/user/avatar", h.Account.UploadAvatar)
			r.Get("/user/addresses", h.Account.Addresses)
			r.Post("/user/addresses", h.Account.AddAddress)
			r.Delete("/user/addresses/{index}", h.Account.DeleteAddress)
		})
	})
	return r
}
