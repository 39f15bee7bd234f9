package repository

import (
	"context"
	"time"

	"nyumbani/internal/infra/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NotificationJobRepository writes outbox rows inside the booking
// transaction; delivery workers drain the table out of process.
type NotificationJobRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationJobRepository(pool *pgxpool.Pool) *NotificationJobRepository {
	return &NotificationJobRepository{pool: pool}
}

func (r *NotificationJobRepository) CreateJob(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error {
	if tx == nil {
		tx = r.pool
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO notification_jobs (kind, topic, payload, run_at)
		VALUES ($1, $2, $3, $4)`,
		kind, topic, payload, runAt,
	)
	if err != nil {
		return classify("failed to create notification job", err)
	}
	return nil
}
