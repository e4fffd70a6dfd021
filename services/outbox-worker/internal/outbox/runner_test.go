package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-backend/services/outbox-worker/internal/metrics"
)

type published struct {
	key     string
	body    string
	headers amqp.Table
}

type fakePub struct {
	sent []published
	fail map[string]error
}

func (p *fakePub) Publish(_ context.Context, key string, body []byte, headers amqp.Table) error {
	if err := p.fail[string(body)]; err != nil {
		return err
	}
	p.sent = append(p.sent, published{key: key, body: string(body), headers: headers})
	return nil
}

var outboxCols = []string{"id", "event_type", "payload", "attempts"}

func TestTickPublishesRetriesAndDrops(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pub := &fakePub{fail: map[string]error{`{"n":2}`: errors.New("broker down")}}
	r := &Runner{
		Log: zerolog.Nop(), DB: mock, EventsPub: pub,
		BatchSize: 50, MaxAttempts: 10, BackoffMax: time.Minute,
		Now: func() time.Time { return now },
	}

	mock.ExpectQuery(`select count\(\*\) from outbox_events where sent_at is null`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectBegin()
	mock.ExpectQuery(`for update skip locked`).
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows(outboxCols).
			AddRow("e1", "users.password_changed", `{"n":1}`, 0).
			AddRow("e2", "users.password_reset_requested", `{"n":2}`, 2).
			AddRow("e3", "users.password_changed", `{"n":3}`, 10))
	mock.ExpectExec(`update outbox_events set sent_at=now\(\), last_error=null where id=\$1`).
		WithArgs("e1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`set attempts = attempts \+ 1`).
		WithArgs("e2", now.Add(8*time.Second), "broker down").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`update outbox_events set last_error=\$2, sent_at=now\(\) where id=\$1`).
		WithArgs("e3", "max attempts reached").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, r.tick(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, pub.sent, 1)
	assert.Equal(t, "users.password_changed", pub.sent[0].key)
	assert.Equal(t, "e1", pub.sent[0].headers["x-outbox-id"])
	assert.Equal(t, int32(0), pub.sent[0].headers["x-attempts"])
	assert.Equal(t, float64(3), testutil.ToFloat64(metrics.OutboxPending))
}

func TestTickClaimErrorRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	r := &Runner{Log: zerolog.Nop(), DB: mock, EventsPub: &fakePub{}, BatchSize: 10, MaxAttempts: 3, BackoffMax: time.Minute}

	mock.ExpectQuery(`select count`).WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectQuery(`for update skip locked`).WithArgs(10).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	require.Error(t, r.tick(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1, time.Minute))
	assert.Equal(t, 16*time.Second, backoff(4, time.Minute))
	assert.Equal(t, time.Minute, backoff(12, time.Minute))
	assert.Equal(t, time.Second, backoff(0, time.Minute))
}
