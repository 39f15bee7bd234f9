package usecase

import (
	"context"
	"time"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/domain/payment"
	"nyumbani/internal/infra/db"
	"nyumbani/internal/infra/gateway/daraja"

	"github.com/google/uuid"
)

// UnitSnapshot is the read-only listing-directory view the core consumes.
type UnitSnapshot struct {
	ID               uuid.UUID
	Name             string
	Capacity         int
	NightlyRateCents int64
	Fees             booking.FeeSchedule
}

// ConflictSummary describes the blocking booking returned on a date clash.
// It carries the range for the UI to suggest alternatives, never the
// blocking requester's identity.
type ConflictSummary struct {
	Reference string
	Start     time.Time
	End       time.Time
}

type UserSnapshot struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string
}

type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UnitSnapshot, error)
}

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*UserSnapshot, error)
}

type BookingRepository interface {
	Create(ctx context.Context, tx db.DBTX, b *booking.Booking) error
	FindByRef(ctx context.Context, dbtx db.DBTX, ref booking.Reference) (*booking.Booking, error)
	FindByRefForUpdate(ctx context.Context, tx db.DBTX, ref booking.Reference) (*booking.Booking, error)
	FindByID(ctx context.Context, dbtx db.DBTX, id uuid.UUID) (*booking.Booking, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*booking.Booking, error)
	// FindBlocking returns the first booking in a blocking status whose stay
	// overlaps the range, ignoring provisionals created before the cutoff.
	// Returns (nil, nil) when the range is free.
	FindBlocking(ctx context.Context, dbtx db.DBTX, unitID uuid.UUID, stay booking.DateRange, provisionalCutoff time.Time) (*ConflictSummary, error)
	// UpdateStatus is a compare-and-swap on status; false when the booking
	// was not in the expected status.
	UpdateStatus(ctx context.Context, tx db.DBTX, id uuid.UUID, from, to booking.Status, now time.Time) (bool, error)
	// ExpireStale cancels provisionals created before the cutoff and returns
	// how many were reclaimed.
	ExpireStale(ctx context.Context, cutoff, now time.Time) (int64, error)
	// ExpireStaleInRange cancels stale provisionals overlapping the given
	// stay on one unit. Create runs it in its own transaction so a hold past
	// its TTL cannot trip the exclusion constraint before the next sweep.
	ExpireStaleInRange(ctx context.Context, tx db.DBTX, unitID uuid.UUID, stay booking.DateRange, cutoff, now time.Time) (int64, error)
}

type PaymentAttemptRepository interface {
	Create(ctx context.Context, tx db.DBTX, a *payment.Attempt) error
	FindByCorrelationID(ctx context.Context, dbtx db.DBTX, correlationID string) (*payment.Attempt, error)
	FindByCorrelationIDForUpdate(ctx context.Context, tx db.DBTX, correlationID string) (*payment.Attempt, error)
	FindCompletedByBooking(ctx context.Context, dbtx db.DBTX, bookingID uuid.UUID) (*payment.Attempt, error)
	Finalize(ctx context.Context, tx db.DBTX, a *payment.Attempt) error
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*payment.Attempt, error)
}

// NotificationJobs is the outbox hand-off; delivery workers are external.
type NotificationJobs interface {
	CreateJob(ctx context.Context, tx db.DBTX, kind, topic string, payload []byte, runAt time.Time) error
}

// Gateway is the mobile-money collaborator: token acquisition happens
// inside the client, push initiation returns the correlation id, and status
// queries report the raw gateway result for outcome mapping here.
type Gateway interface {
	InitiatePush(ctx context.Context, phone string, amountCents int64, accountRef, desc string) (string, error)
	QueryStatus(ctx context.Context, correlationID string) (daraja.QueryResult, error)
}
