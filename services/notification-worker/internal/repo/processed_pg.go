package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProcessedPG records handled event ids so redelivered events are skipped.
type ProcessedPG struct {
	DB DB
}

func (r *ProcessedPG) AlreadyProcessed(ctx context.Context, eventID string) (bool, error) {
	var ok bool
	err := r.DB.QueryRow(ctx, `select exists(select 1 from processed_events where event_id = $1::uuid)`, eventID).Scan(&ok)
	return ok, err
}

// MarkProcessed returns false when another consumer got there first.
func (r *ProcessedPG) MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error) {
	ct, err := r.DB.Exec(ctx, `
		insert into processed_events(event_id, event_type)
		values ($1::uuid, $2)
		on conflict do nothing
	`, eventID, eventType)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() == 1, nil
}
