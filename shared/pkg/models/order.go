package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Order struct {
	ID              string        `json:"id"`
	OrderNumber     string        `json:"order_number"`
	Email           string        `json:"email"`
	UserID          string        `json:"user_id,omitempty"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentIntentID string        `json:"payment_intent_id,omitempty"`
	TotalCents      int64         `json:"total_cents"`
	Currency        string        `json:"currency"`
	Items           []OrderItem   `json:"items"`
	CreatedAt       time.Time     `json:"created_at"`
}

type OrderItem struct {
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"price_cents"`
	ImageKey   string `json:"image_key,omitempty"`
	Color      string `json:"color,omitempty"`
	Size       string `json:"size,omitempty"`
}
