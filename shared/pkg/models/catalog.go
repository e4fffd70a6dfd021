package models

import "time"

type Category struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageKey    string `json:"image_key,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

type Collection struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageKey    string `json:"image_key,omitempty"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
}

type Product struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	ImageKey    string    `json:"image_key,omitempty"`
	CategoryID  string    `json:"category_id,omitempty"`
	Variants    []Variant `json:"variants"`
	CreatedAt   time.Time `json:"created_at"`
}

type Variant struct {
	SKU        string `json:"sku"`
	Color      string `json:"color,omitempty"`
	Size       string `json:"size,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`
	Stock      int    `json:"stock"`
	ImageKey   string `json:"image_key,omitempty"`
}
