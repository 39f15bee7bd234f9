package repository

import (
	"context"
	"errors"
	"time"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/infra"
	"nyumbani/internal/infra/db"
	"nyumbani/internal/usecase"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrExclusionViolation  = "23P01"
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// classify maps Postgres error codes onto repository error kinds. The
// exclusion constraint on (unit_id, stay) surfaces here as a conflict: the
// losing side of a concurrent create race lands in this branch.
func classify(msg string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return infra.WrapRepoErr(msg, err, infra.KindNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrExclusionViolation:
			return infra.WrapRepoErr(msg, err, infra.KindConflict)
		case pgErrUniqueViolation:
			return infra.WrapRepoErr(msg, err, infra.KindDuplicateKey)
		case pgErrForeignKeyViolation:
			return infra.WrapRepoErr(msg, err, infra.KindForeignKeyViolated)
		}
	}
	return infra.WrapRepoErr(msg, err)
}

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

const bookingColumns = `id, reference, unit_id, requester_id,
	lower(stay), upper(stay), guests, status, nights,
	subtotal_cents, service_fee_cents, cleaning_fee_cents,
	security_deposit_cents, total_cents, created_at, updated_at`

func (r *BookingRepository) Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO bookings (
			id, reference, unit_id, requester_id, stay, guests, status, nights,
			subtotal_cents, service_fee_cents, cleaning_fee_cents,
			security_deposit_cents, total_cents, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5::daterange, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		b.ID(), b.Reference().String(), b.UnitID(), b.RequesterID(),
		b.Stay().ToDaterange(), b.Guests(), b.Status().String(), b.Price().Nights,
		b.Price().SubtotalCents, b.Price().ServiceFeeCents, b.Price().CleaningFeeCents,
		b.Price().SecurityDepositCents, b.Price().TotalCents, b.CreatedAt(), b.UpdatedAt(),
	)
	if err != nil {
		return classify("failed to create booking", err)
	}
	return nil
}

func (r *BookingRepository) FindByRef(ctx context.Context, dbtx db.DBTX, ref booking.Reference) (*booking.Booking, error) {
	if dbtx == nil {
		dbtx = r.pool
	}
	row := dbtx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1`, ref.String())
	return scanBooking(row, "failed to find booking by reference")
}

func (r *BookingRepository) FindByRefForUpdate(ctx context.Context, tx db.DBTX, ref booking.Reference) (*booking.Booking, error) {
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference = $1 FOR UPDATE`, ref.String())
	return scanBooking(row, "failed to lock booking by reference")
}

func (r *BookingRepository) FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	if dbtx == nil {
		dbtx = r.pool
	}
	row := dbtx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row, "failed to find booking by id")
}

func (r *BookingRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*booking.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE requester_id = $1 ORDER BY created_at DESC`,
		requesterID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookings by requester", err)
	}
	defer rows.Close()

	var result []*booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows, "failed to scan booking row")
		if err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate booking rows", err)
	}
	return result, nil
}

func (r *BookingRepository) FindBlocking(
	ctx context.Context,
	dbtx db.DBTX,
	unitID uuid.UUID,
	stay booking.DateRange,
	provisionalCutoff time.Time,
) (*usecase.ConflictSummary, error) {
	if dbtx == nil {
		dbtx = r.pool
	}
	// Stale provisionals are skipped here even before the sweep flips them.
	row := dbtx.QueryRow(ctx, `
		SELECT reference, lower(stay), upper(stay)
		FROM bookings
		WHERE unit_id = $1
		  AND status IN ('provisional', 'confirmed', 'completed')
		  AND NOT (status = 'provisional' AND created_at < $2)
		  AND stay && $3::daterange
		ORDER BY lower(stay)
		LIMIT 1`,
		unitID, provisionalCutoff, stay.ToDaterange(),
	)

	var summary usecase.ConflictSummary
	if err := row.Scan(&summary.Reference, &summary.Start, &summary.End); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to scan blocking booking", err)
	}
	return &summary, nil
}

func (r *BookingRepository) UpdateStatus(
	ctx context.Context,
	tx db.DBTX,
	id uuid.UUID,
	from, to booking.Status,
	now time.Time,
) (bool, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		to.String(), now, id, from.String(),
	)
	if err != nil {
		return false, classify("failed to update booking status", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *BookingRepository) ExpireStaleInRange(
	ctx context.Context,
	tx db.DBTX,
	unitID uuid.UUID,
	stay booking.DateRange,
	cutoff, now time.Time,
) (int64, error) {
	tag, err := tx.Exec(ctx, `
		UPDATE bookings SET status = 'cancelled', updated_at = $1
		WHERE unit_id = $2 AND status = 'provisional'
		  AND created_at < $3 AND stay && $4::daterange`,
		now, unitID, cutoff, stay.ToDaterange(),
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire stale provisionals in range", err)
	}
	return tag.RowsAffected(), nil
}

func (r *BookingRepository) ExpireStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings SET status = 'cancelled', updated_at = $1
		WHERE status = 'provisional' AND created_at < $2`,
		now, cutoff,
	)
	if err != nil {
		return 0, infra.WrapRepoErr("failed to expire stale provisionals", err)
	}
	return tag.RowsAffected(), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner, msg string) (*booking.Booking, error) {
	var (
		id, unitID, requesterID uuid.UUID
		refStr, statusStr       string
		start, end              time.Time
		guests                  int
		price                   booking.PriceBreakdown
		createdAt, updatedAt    time.Time
	)
	err := row.Scan(
		&id, &refStr, &unitID, &requesterID,
		&start, &end, &guests, &statusStr, &price.Nights,
		&price.SubtotalCents, &price.ServiceFeeCents, &price.CleaningFeeCents,
		&price.SecurityDepositCents, &price.TotalCents, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, classify(msg, err)
	}

	ref, err := booking.ParseReference(refStr)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid stored booking reference", err)
	}
	stay, err := booking.NewDateRange(start, end)
	if err != nil {
		return nil, infra.WrapRepoErr("invalid stored stay range", err)
	}

	return booking.Reconstruct(
		id, ref, unitID, requesterID, stay, guests,
		booking.Status(statusStr), price, createdAt, updatedAt,
	), nil
}
