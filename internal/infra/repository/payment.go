package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"nyumbani/internal/domain/payment"
	"nyumbani/internal/infra"
	"nyumbani/internal/infra/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PaymentAttemptRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentAttemptRepository(pool *pgxpool.Pool) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{pool: pool}
}

const attemptColumns = `id, booking_id, correlation_id, amount_cents, status, receipt, created_at, updated_at`

func (r *PaymentAttemptRepository) Create(ctx context.Context, tx db.DBTX, a *payment.Attempt) error {
	if tx == nil {
		tx = r.pool
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO payment_attempts (
			id, booking_id, correlation_id, amount_cents, status, receipt, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
		a.ID(), a.BookingID(), a.CorrelationID(), a.AmountCents(),
		a.Status().String(), a.Receipt(), a.CreatedAt(), a.UpdatedAt(),
	)
	if err != nil {
		return classify("failed to create payment attempt", err)
	}
	return nil
}

func (r *PaymentAttemptRepository) FindByCorrelationID(ctx context.Context, dbtx db.DBTX, correlationID string) (*payment.Attempt, error) {
	if dbtx == nil {
		dbtx = r.pool
	}
	row := dbtx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts WHERE correlation_id = $1`,
		correlationID,
	)
	return scanAttempt(row, "failed to find payment attempt")
}

func (r *PaymentAttemptRepository) FindByCorrelationIDForUpdate(ctx context.Context, tx db.DBTX, correlationID string) (*payment.Attempt, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts WHERE correlation_id = $1 FOR UPDATE`,
		correlationID,
	)
	return scanAttempt(row, "failed to lock payment attempt")
}

func (r *PaymentAttemptRepository) FindCompletedByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) (*payment.Attempt, error) {
	if dbtx == nil {
		dbtx = r.pool
	}
	row := dbtx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts WHERE booking_id = $1 AND status = 'completed'`,
		bookingID,
	)
	a, err := scanAttempt(row, "failed to find completed attempt")
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}

// Finalize persists a finalized attempt. The partial unique indexes on
// receipt and (booking_id, completed) make a double-finalize impossible at
// the storage level; that surfaces as KindDuplicateKey.
func (r *PaymentAttemptRepository) Finalize(ctx context.Context, tx db.DBTX, a *payment.Attempt) error {
	if tx == nil {
		tx = r.pool
	}
	tag, err := tx.Exec(ctx, `
		UPDATE payment_attempts
		SET status = $1, receipt = NULLIF($2, ''), updated_at = $3
		WHERE id = $4`,
		a.Status().String(), a.Receipt(), a.UpdatedAt(), a.ID(),
	)
	if err != nil {
		return classify("failed to finalize payment attempt", err)
	}
	if tag.RowsAffected() != 1 {
		return infra.WrapRepoErr("payment attempt vanished during finalize", nil, infra.KindNotFound)
	}
	return nil
}

func (r *PaymentAttemptRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*payment.Attempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM payment_attempts WHERE status = 'pending' AND created_at < $1 ORDER BY created_at`,
		cutoff,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list pending attempts", err)
	}
	defer rows.Close()

	var result []*payment.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows, "failed to scan attempt row")
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate attempt rows", err)
	}
	return result, nil
}

func scanAttempt(row rowScanner, msg string) (*payment.Attempt, error) {
	var (
		id, bookingID        uuid.UUID
		correlationID        string
		amountCents          int64
		statusStr            string
		receipt              sql.NullString
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&id, &bookingID, &correlationID, &amountCents, &statusStr, &receipt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr(msg, err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr(msg, err)
	}

	return payment.ReconstructAttempt(
		id, bookingID, correlationID, amountCents,
		payment.Status(statusStr), receipt.String, createdAt, updatedAt,
	), nil
}
