package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-backend/shared/pkg/models"

	"github.com/jackc/pgx/v5"
)

type CatalogPG struct {
	DB DB
}

func (r *CatalogPG) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.DB.Query(ctx, `
		select id::text, title, slug, description, coalesce(image_key, ''), sort_order
		from categories
		order by sort_order, title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.ImageKey, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CatalogPG) GetCategoryBySlug(ctx context.Context, slug string) (models.Category, error) {
	var c models.Category
	err := r.DB.QueryRow(ctx, `
		select id::text, title, slug, description, coalesce(image_key, ''), sort_order
		from categories where slug = $1
	`, slug).Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.ImageKey, &c.SortOrder)
	if err != nil {
		return models.Category{}, notFound(err)
	}
	return c, nil
}

func (r *CatalogPG) ListActiveCollections(ctx context.Context) ([]models.Collection, error) {
	rows, err := r.DB.Query(ctx, `
		select id::text, title, slug, description, coalesce(image_key, ''), is_active, sort_order
		from collections
		where is_active
		order by sort_order, title
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Collection{}
	for rows.Next() {
		var c models.Collection
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Description, &c.ImageKey, &c.IsActive, &c.SortOrder); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const productColumns = `id::text, slug, name, description, price_cents, currency,
	coalesce(image_key, ''), coalesce(category_id::text, ''), variants, created_at`

func scanProduct(row pgx.Row) (models.Product, error) {
	var (
		p        models.Product
		variants []byte
	)
	if err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Description, &p.PriceCents, &p.Currency,
		&p.ImageKey, &p.CategoryID, &variants, &p.CreatedAt); err != nil {
		return models.Product{}, notFound(err)
	}
	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return models.Product{}, fmt.Errorf("decode variants of %s: %w", p.Slug, err)
	}
	return p, nil
}

func (r *CatalogPG) GetProductBySlug(ctx context.Context, slug string) (models.Product, error) {
	return scanProduct(r.DB.QueryRow(ctx, `select `+productColumns+` from products where slug = $1`, slug))
}

func (r *CatalogPG) ListProductsByCategory(ctx context.Context, categoryID string) ([]models.Product, error) {
	rows, err := r.DB.Query(ctx, `
		select `+productColumns+`
		from products where category_id = $1::uuid
		order by created_at desc
	`, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
