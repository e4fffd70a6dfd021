package models

import "time"

type CartState struct {
	Email         string     `json:"email"`
	Items         []CartItem `json:"items"`
	LastClearedAt *time.Time `json:"last_cleared_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type CartItem struct {
	ProductID  string `json:"product_id"`
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
	ImageKey   string `json:"image_key,omitempty"`
	Color      string `json:"color,omitempty"`
	Size       string `json:"size,omitempty"`
}
