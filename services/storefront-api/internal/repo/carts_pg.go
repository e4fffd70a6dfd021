package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"storefront-backend/shared/pkg/models"
)

type CartsPG struct {
	DB DB
}

func (r *CartsPG) Get(ctx context.Context, email string) (models.CartState, error) {
	var (
		c     models.CartState
		items []byte
	)
	err := r.DB.QueryRow(ctx, `
		select email, items, last_cleared_at, updated_at
		from cart_states where email = $1
	`, email).Scan(&c.Email, &items, &c.LastClearedAt, &c.UpdatedAt)
	if err != nil {
		return models.CartState{}, notFound(err)
	}
	if err := json.Unmarshal(items, &c.Items); err != nil {
		return models.CartState{}, fmt.Errorf("decode cart of %s: %w", email, err)
	}
	return c, nil
}

// Replace overwrites the stored items wholesale.
func (r *CartsPG) Replace(ctx context.Context, email string, items []models.CartItem, at time.Time) error {
	if items == nil {
		items = []models.CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return err
	}
	_, err = r.DB.Exec(ctx, `
		insert into cart_states (email, items, updated_at)
		values ($1, $2::jsonb, $3)
		on conflict (email) do update
		set items = excluded.items, updated_at = excluded.updated_at
	`, email, string(b), at)
	return err
}

// Clear stores an empty item list and stamps last_cleared_at.
func (r *CartsPG) Clear(ctx context.Context, email string, at time.Time) error {
	_, err := r.DB.Exec(ctx, `
		insert into cart_states (email, items, last_cleared_at, updated_at)
		values ($1, '[]'::jsonb, $2, $2)
		on conflict (email) do update
		set items = '[]'::jsonb, last_cleared_at = excluded.last_cleared_at, updated_at = excluded.updated_at
	`, email, at)
	return err
}
