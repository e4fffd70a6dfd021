package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"storefront-backend/services/storefront-api/internal/assets"
	"storefront-backend/services/storefront-api/internal/repo"
	"storefront-backend/shared/pkg/models"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (models.Category, error)
	ListActiveCollections(ctx context.Context) ([]models.Collection, error)
	GetProductBySlug(ctx context.Context, slug string) (models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error)
}

type CatalogHandler struct {
	Store  CatalogStore
	Images assets.URLBuilder
	Log    zerolog.Logger
}

type categoryResp struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type collectionResp struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type variantResp struct {
	SKU        string `json:"sku"`
	Color      string `json:"color,omitempty"`
	Size       string `json:"size,omitempty"`
	PriceCents int64  `json:"price_cents"`
	Stock      int    `json:"stock"`
	ImageURL   string `json:"image_url"`
}

type productResp struct {
	ID          string        `json:"id"`
	Slug        string        `json:"slug"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	PriceCents  int64         `json:"price_cents"`
	Currency    string        `json:"currency"`
	ImageURL    string        `json:"image_url"`
	Variants    []variantResp `json:"variants"`
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Store.ListCategories(r.Context())
	if err != nil {
		internalError(h.Log, w, r, err, "failed to fetch categories")
		return
	}
	out := make([]categoryResp, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryResp{
			ID: c.ID, Title: c.Title, Slug: c.Slug, Description: c.Description,
			ImageURL: h.Images.URL(c.ImageKey),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *CatalogHandler) Collections(w http.ResponseWriter, r *http.Request) {
	cols, err := h.Store.ListActiveCollections(r.Context())
	if err != nil {
		internalError(h.Log, w, r, err, "failed to fetch collections")
		return
	}
	out := make([]collectionResp, 0, len(cols))
	for _, c := range cols {
		out = append(out, collectionResp{
			ID: c.ID, Title: c.Title, Slug: c.Slug, Description: c.Description,
			ImageURL: h.Images.URL(c.ImageKey),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	if slug == "" {
		writeError(w, r, http.StatusBadRequest, "slug is required")
		return
	}
	p, err := h.Store.GetProductBySlug(r.Context(), slug)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		internalError(h.Log, w, r, err, "failed to fetch product")
		return
	}
	writeJSON(w, r, http.StatusOK, h.product(p))
}

func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	cat, err := h.Store.GetCategoryBySlug(r.Context(), slug)
	if errors.Is(err, repo.ErrNotFound) {
		writeError(w, r, http.StatusNotFound, "category not found")
		return
	}
	if err != nil {
		internalError(h.Log, w, r, err, "failed to fetch category")
		return
	}
	products, err := h.Store.ListProductsByCategory(r.Context(), cat.ID)
	if err != nil {
		internalError(h.Log, w, r, err, "failed to fetch products")
		return
	}
	out := make([]productResp, 0, len(products))
	for _, p := range products {
		out = append(out, h.product(p))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *CatalogHandler) product(p models.Product) productResp {
	variants := make([]variantResp, 0, len(p.Variants))
	for _, v := range p.Variants {
		price := v.PriceCents
		if price == 0 {
			price = p.PriceCents
		}
		img := v.ImageKey
		if img == "" {
			img = p.ImageKey
		}
		variants = append(variants, variantResp{
			SKU: v.SKU, Color: v.Color, Size: v.Size, PriceCents: price, Stock: v.Stock,
			ImageURL: h.Images.URL(img),
		})
	}
	return productResp{
		ID: p.ID, Slug: p.Slug, Name: p.Name, Description: p.Description,
		PriceCents: p.PriceCents, Currency: p.Currency,
		ImageURL: h.Images.URL(p.ImageKey),
		Variants: variants,
	}
}
