package repository

import (
	"context"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/usecase"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitRepository is the read-only listing-directory adapter.
type UnitRepository struct {
	pool *pgxpool.Pool
}

func NewUnitRepository(pool *pgxpool.Pool) *UnitRepository {
	return &UnitRepository{pool: pool}
}

func (r *UnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*usecase.UnitSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, capacity, nightly_rate_cents,
		       cleaning_fee_cents, security_deposit_cents, service_fee_percent
		FROM units WHERE id = $1`, id)

	var (
		snapshot usecase.UnitSnapshot
		fees     booking.FeeSchedule
	)
	err := row.Scan(
		&snapshot.ID, &snapshot.Name, &snapshot.Capacity, &snapshot.NightlyRateCents,
		&fees.CleaningFeeCents, &fees.SecurityDepositCents, &fees.ServiceFeePercent,
	)
	if err != nil {
		return nil, classify("failed to find unit", err)
	}
	snapshot.Fees = fees
	return &snapshot, nil
}
