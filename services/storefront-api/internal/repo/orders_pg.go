package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"storefront-backend/shared/pkg/models"

	"github.com/jackc/pgx/v5"
)

type OrdersPG struct {
	DB DB
}

const orderSelect = `
	select o.id::text, o.order_number, o.email, coalesce(o.user_id::text, ''),
	       o.payment_status, coalesce(o.payment_intent_id, ''), o.total_cents, o.currency, o.created_at,
	       coalesce((
	           select jsonb_agg(jsonb_build_object(
	                      'name', i.name, 'quantity', i.quantity, 'price_cents', i.price_cents,
	                      'image_key', coalesce(i.image_key, ''), 'color', coalesce(i.color, ''),
	                      'size', coalesce(i.size, ''))
	                  order by i.position)
	           from order_items i where i.order_id = o.id
	       ), '[]'::jsonb)
	from orders o`

// ListByEmail returns orders placed with email, newest first.
func (r *OrdersPG) ListByEmail(ctx context.Context, email string) ([]models.Order, error) {
	rows, err := r.DB.Query(ctx, orderSelect+`
		where lower(o.email) = lower($1)
		order by o.created_at desc`, email)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

// ListByEmailOrUser also returns orders that reference userID even when they
// were placed under another email.
func (r *OrdersPG) ListByEmailOrUser(ctx context.Context, email, userID string) ([]models.Order, error) {
	rows, err := r.DB.Query(ctx, orderSelect+`
		where lower(o.email) = lower($1) or o.user_id = $2::uuid
		order by o.created_at desc`, email, userID)
	if err != nil {
		return nil, err
	}
	return collectOrders(rows)
}

func collectOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()

	out := []models.Order{}
	for rows.Next() {
		var (
			o      models.Order
			status string
			items  []byte
		)
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Email, &o.UserID, &status,
			&o.PaymentIntentID, &o.TotalCents, &o.Currency, &o.CreatedAt, &items); err != nil {
			return nil, err
		}
		o.PaymentStatus = models.PaymentStatus(status)
		if err := json.Unmarshal(items, &o.Items); err != nil {
			return nil, fmt.Errorf("decode items of order %s: %w", o.OrderNumber, err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
