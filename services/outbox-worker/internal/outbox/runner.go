package outbox

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"storefront-backend/services/outbox-worker/internal/metrics"
	"storefront-backend/shared/pkg/rabbit"
)

type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Runner relays rows of outbox_events to the events exchange, routing by
// event type. Delivery is at least once: consumers dedupe on the event id.
type Runner struct {
	Log zerolog.Logger
	DB  DB

	EventsPub rabbit.RawPublisher

	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	BackoffMax   time.Duration

	Now func() time.Time
}

type EventRow struct {
	ID        string
	EventType string
	Payload   []byte
	Attempts  int
}

func (r *Runner) Run(ctx context.Context) {
	t := time.NewTicker(r.PollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Log.Info().Msg("outbox runner stopped")
			return
		case <-t.C:
			if err := r.tick(ctx); err != nil {
				r.Log.Error().Err(err).Msg("outbox tick failed")
			}
		}
	}
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Runner) tick(ctx context.Context) error {
	if _, err := Pending(ctx, r.DB); err != nil {
		r.Log.Warn().Err(err).Msg("pending count failed")
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch, err := claim(ctx, tx, r.BatchSize)
	if err != nil {
		return err
	}

	for _, e := range batch {
		if e.Attempts >= r.MaxAttempts {
			if _, err := tx.Exec(ctx, `update outbox_events set last_error=$2, sent_at=now() where id=$1`, e.ID, "max attempts reached"); err != nil {
				return err
			}
			metrics.OutboxDroppedTotal.Inc()
			r.Log.Warn().Str("id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts).Msg("outbox drop (max attempts), marked sent")
			continue
		}

		pubCtx, cancel := rabbit.WithTimeout(ctx)
		err := r.EventsPub.Publish(pubCtx, e.EventType, e.Payload, amqp.Table{
			"x-outbox-id": e.ID,
			"x-attempts":  int32(e.Attempts),
		})
		cancel()

		if err == nil {
			metrics.OutboxSentTotal.WithLabelValues(e.EventType).Inc()
			if _, err := tx.Exec(ctx, `update outbox_events set sent_at=now(), last_error=null where id=$1`, e.ID); err != nil {
				return err
			}
			continue
		}

		metrics.OutboxPublishErrorsTotal.WithLabelValues(e.EventType).Inc()
		next := r.now().Add(backoff(e.Attempts+1, r.BackoffMax))
		if _, err2 := tx.Exec(ctx, `
			update outbox_events
			set attempts = attempts + 1,
			    next_attempt_at = $2,
			    last_error = $3
			where id = $1
		`, e.ID, next, err.Error()); err2 != nil {
			return err2
		}
		r.Log.Error().Err(err).Str("id", e.ID).Str("type", e.EventType).Int("attempts", e.Attempts+1).Time("next", next).Msg("publish failed -> retry scheduled")
	}

	return tx.Commit(ctx)
}

// claim locks up to limit due rows. Concurrent runners skip each other's rows.
func claim(ctx context.Context, tx pgx.Tx, limit int) ([]EventRow, error) {
	rows, err := tx.Query(ctx, `
		select id::text, event_type, payload::text, attempts
		from outbox_events
		where sent_at is null and next_attempt_at <= now()
		order by created_at
		limit $1
		for update skip locked
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []EventRow
	for rows.Next() {
		var e EventRow
		var payloadText string
		if err := rows.Scan(&e.ID, &e.EventType, &payloadText, &e.Attempts); err != nil {
			return nil, err
		}
		e.Payload = []byte(payloadText)
		batch = append(batch, e)
	}
	return batch, rows.Err()
}

// Pending counts unsent rows and refreshes the outbox_pending gauge.
func Pending(ctx context.Context, db DB) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	var n int
	if err := db.QueryRow(ctx, `select count(*) from outbox_events where sent_at is null`).Scan(&n); err != nil {
		return 0, err
	}
	metrics.OutboxPending.Set(float64(n))
	return n, nil
}

func backoff(attempt int, limit time.Duration) time.Duration {
	sec := math.Pow(2, float64(attempt))
	d := time.Duration(sec) * time.Second
	if d > limit {
		return limit
	}
	if d < time.Second {
		return time.Second
	}
	return d
}
