package repo

import (
	"context"
	"encoding/json"

	"storefront-backend/shared/pkg/models"

	"github.com/jackc/pgx/v5"
)

type OutboxPG struct{}

// Enqueue writes an event into outbox_events within the given transaction.
func (o *OutboxPG) Enqueue(ctx context.Context, tx pgx.Tx, msg models.OutboxMessage) error {
	b, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		insert into outbox_events(
			id, aggregate_id, event_type, payload,
			attempts, next_attempt_at, created_at
		)
		values ($1::uuid, $2, $3, $4::jsonb, 0, now(), now())
	`, msg.ID, msg.AggregateID, msg.Type, string(b))
	return err
}
