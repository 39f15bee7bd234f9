package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/infra"
	"nyumbani/internal/infra/db"
	"nyumbani/internal/pkg/clock"
	"nyumbani/internal/pkg/config"
	"nyumbani/internal/pkg/errs"

	"github.com/google/uuid"
)

type QuoteParams struct {
	UnitID uuid.UUID
	Start  time.Time
	End    time.Time
}

type AvailabilityParams struct {
	UnitID uuid.UUID
	Start  time.Time
	End    time.Time
}

type AvailabilityResult struct {
	Available bool
	Conflict  *ConflictSummary
}

type CreateParams struct {
	UnitID      uuid.UUID
	RequesterID uuid.UUID
	Start       time.Time
	End         time.Time
	Guests      int
}

type BookingView struct {
	ID                   uuid.UUID
	Reference            string
	UnitID               uuid.UUID
	Start                time.Time
	End                  time.Time
	Nights               int
	Guests               int
	Status               string
	SubtotalCents        int64
	ServiceFeeCents      int64
	CleaningFeeCents     int64
	SecurityDepositCents int64
	TotalCents           int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func newBookingView(b *booking.Booking) *BookingView {
	price := b.Price()
	return &BookingView{
		ID:                   b.ID(),
		Reference:            b.Reference().String(),
		UnitID:               b.UnitID(),
		Start:                b.Stay().Start(),
		End:                  b.Stay().End(),
		Nights:               price.Nights,
		Guests:               b.Guests(),
		Status:               b.Status().String(),
		SubtotalCents:        price.SubtotalCents,
		ServiceFeeCents:      price.ServiceFeeCents,
		CleaningFeeCents:     price.CleaningFeeCents,
		SecurityDepositCents: price.SecurityDepositCents,
		TotalCents:           price.TotalCents,
		CreatedAt:            b.CreatedAt(),
		UpdatedAt:            b.UpdatedAt(),
	}
}

// ConflictError carries the blocking range so the UI can suggest
// alternative dates. errors.Is(err, errs.ErrBookingConflict) matches it.
type ConflictError struct {
	Conflict ConflictSummary
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict with %s..%s",
		e.Conflict.Start.Format(time.DateOnly), e.Conflict.End.Format(time.DateOnly))
}

func (e *ConflictError) Is(target error) bool {
	return target == errs.ErrBookingConflict
}

type ReservationUseCase interface {
	Quote(ctx context.Context, p QuoteParams) (*booking.PriceBreakdown, error)
	CheckAvailability(ctx context.Context, p AvailabilityParams) (*AvailabilityResult, error)
	Create(ctx context.Context, p CreateParams) (*BookingView, error)
	GetByRef(ctx context.Context, ref string, requesterID uuid.UUID) (*BookingView, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*BookingView, error)
	Cancel(ctx context.Context, ref string, requesterID uuid.UUID, reason string) (*BookingView, error)
	ExpireStaleProvisionals(ctx context.Context) (int64, error)
}

// ReservationFinalizer is the lifecycle hook the payment reconciliation
// side calls to confirm a booking inside its own finalize transaction.
type ReservationFinalizer interface {
	ConfirmByReceipt(ctx context.Context, tx db.DBTX, bookingID uuid.UUID, receipt string) (*booking.Booking, error)
}

type reservationUseCaseImpl struct {
	units        UnitRepository
	bookings     BookingRepository
	attempts     PaymentAttemptRepository
	notification NotificationJobs
	txRunner     db.TxRunner
	clock        clock.Clock
	cfg          config.BookingConfig
}

func NewReservationUseCase(
	units UnitRepository,
	bookings BookingRepository,
	attempts PaymentAttemptRepository,
	notification NotificationJobs,
	txRunner db.TxRunner,
	clk clock.Clock,
	cfg config.BookingConfig,
) ReservationUseCase {
	return &reservationUseCaseImpl{
		units:        units,
		bookings:     bookings,
		attempts:     attempts,
		notification: notification,
		txRunner:     txRunner,
		clock:        clk,
		cfg:          cfg,
	}
}

// NewReservationFinalizer exposes the same implementation under the
// finalizer interface for the payment side.
func NewReservationFinalizer(uc ReservationUseCase) ReservationFinalizer {
	return uc.(*reservationUseCaseImpl)
}

func (r *reservationUseCaseImpl) Quote(ctx context.Context, p QuoteParams) (*booking.PriceBreakdown, error) {
	unit, err := r.findUnit(ctx, p.UnitID)
	if err != nil {
		return nil, err
	}

	stay, err := booking.NewFutureDateRange(p.Start, p.End, r.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	price, err := booking.Quote(unit.NightlyRateCents, stay, unit.Fees)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}
	return &price, nil
}

func (r *reservationUseCaseImpl) CheckAvailability(ctx context.Context, p AvailabilityParams) (*AvailabilityResult, error) {
	if _, err := r.findUnit(ctx, p.UnitID); err != nil {
		return nil, err
	}

	stay, err := booking.NewFutureDateRange(p.Start, p.End, r.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	conflict, err := r.bookings.FindBlocking(ctx, nil, p.UnitID, stay, r.provisionalCutoff())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if conflict != nil {
		return &AvailabilityResult{Available: false, Conflict: conflict}, nil
	}
	return &AvailabilityResult{Available: true}, nil
}

// Create persists a provisional booking. The earlier availability check the
// client ran is advisory only; the authoritative check happens here, inside
// the same transaction as the insert, and the exclusion constraint settles
// any race the check itself cannot see.
func (r *reservationUseCaseImpl) Create(ctx context.Context, p CreateParams) (*BookingView, error) {
	unit, err := r.findUnit(ctx, p.UnitID)
	if err != nil {
		return nil, err
	}

	now := r.clock.Now()
	stay, err := booking.NewFutureDateRange(p.Start, p.End, now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	b, err := booking.NewBooking(
		p.UnitID, p.RequesterID, stay, p.Guests, unit.Capacity,
		unit.NightlyRateCents, unit.Fees, now,
	)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	err = r.txRunner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		// The exclusion constraint does not know about the TTL, so a stale
		// hold on this range must be flipped before the insert or it would
		// reject a stay the availability check just reported as free.
		if _, err := r.bookings.ExpireStaleInRange(ctx, tx, p.UnitID, stay, r.provisionalCutoff(), now); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		conflict, err := r.bookings.FindBlocking(ctx, tx, p.UnitID, stay, r.provisionalCutoff())
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if conflict != nil {
			return &ConflictError{Conflict: *conflict}
		}

		if err := r.bookings.Create(ctx, tx, b); err != nil {
			if infra.IsKind(err, infra.KindConflict) {
				// Lost a race the advisory check could not see; fetch the
				// winner's range for the response.
				return r.conflictFromStore(ctx, p.UnitID, stay)
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		return r.enqueueBookingEvent(ctx, tx, b, "booking_created")
	})
	if err != nil {
		return nil, err
	}

	return newBookingView(b), nil
}

func (r *reservationUseCaseImpl) GetByRef(ctx context.Context, ref string, requesterID uuid.UUID) (*BookingView, error) {
	b, err := r.loadOwned(ctx, ref, requesterID)
	if err != nil {
		return nil, err
	}
	return newBookingView(b), nil
}

func (r *reservationUseCaseImpl) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*BookingView, error) {
	list, err := r.bookings.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	views := make([]*BookingView, len(list))
	for i, b := range list {
		views[i] = newBookingView(b)
	}
	return views, nil
}

func (r *reservationUseCaseImpl) Cancel(ctx context.Context, ref string, requesterID uuid.UUID, reason string) (*BookingView, error) {
	parsedRef, err := booking.ParseReference(ref)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	var view *BookingView
	err = r.txRunner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		b, err := r.bookings.FindByRefForUpdate(ctx, tx, parsedRef)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrBookingNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if b.RequesterID() != requesterID {
			return errs.ErrBookingNotFound
		}

		from := b.Status()
		now := r.clock.Now()
		if err := b.Cancel(now); err != nil {
			return errs.Mark(err, errs.ErrNotCancellable)
		}

		ok, err := r.bookings.UpdateStatus(ctx, tx, b.ID(), from, booking.StatusCancelled, now)
		if err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !ok {
			return errs.ErrNotCancellable
		}

		slog.Info("booking cancelled",
			"reference", b.Reference().String(), "reason", reason)

		view = newBookingView(b)
		return r.enqueueBookingEvent(ctx, tx, b, "booking_cancelled")
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ExpireStaleProvisionals reclaims provisional holds older than the TTL so
// abandoned checkouts free their date ranges.
func (r *reservationUseCaseImpl) ExpireStaleProvisionals(ctx context.Context) (int64, error) {
	now := r.clock.Now()
	n, err := r.bookings.ExpireStale(ctx, now.Add(-r.cfg.ProvisionalTTL), now)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if n > 0 {
		slog.Info("expired stale provisional bookings", "count", n)
	}
	return n, nil
}

// ConfirmByReceipt moves a provisional booking to confirmed inside the
// caller's transaction. Re-applying the receipt already recorded is a
// no-op; any other attempt to re-finalize fails with AlreadyFinalized.
func (r *reservationUseCaseImpl) ConfirmByReceipt(ctx context.Context, tx db.DBTX, bookingID uuid.UUID, receipt string) (*booking.Booking, error) {
	b, err := r.bookings.FindByID(ctx, tx, bookingID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrBookingNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	switch b.Status() {
	case booking.StatusProvisional:
		now := r.clock.Now()
		if err := b.Confirm(now); err != nil {
			return nil, errs.Mark(err, errs.ErrAlreadyFinalized)
		}
		ok, err := r.bookings.UpdateStatus(ctx, tx, b.ID(), booking.StatusProvisional, booking.StatusConfirmed, now)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if !ok {
			return nil, errs.ErrAlreadyFinalized
		}
		return b, nil

	case booking.StatusConfirmed:
		completed, err := r.attempts.FindCompletedByBooking(ctx, tx, b.ID())
		if err != nil {
			return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}
		if completed != nil && completed.Receipt() == receipt {
			return b, nil
		}
		return nil, errs.ErrAlreadyFinalized

	default:
		return nil, errs.ErrAlreadyFinalized
	}
}

func (r *reservationUseCaseImpl) findUnit(ctx context.Context, unitID uuid.UUID) (*UnitSnapshot, error) {
	unit, err := r.units.FindByID(ctx, unitID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrUnitNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return unit, nil
}

func (r *reservationUseCaseImpl) loadOwned(ctx context.Context, ref string, requesterID uuid.UUID) (*booking.Booking, error) {
	parsedRef, err := booking.ParseReference(ref)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	b, err := r.bookings.FindByRef(ctx, nil, parsedRef)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrBookingNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if b.RequesterID() != requesterID {
		return nil, errs.ErrBookingNotFound
	}
	return b, nil
}

// provisionalCutoff is the creation instant before which a provisional
// booking no longer blocks, even if the sweep has not flipped it yet.
func (r *reservationUseCaseImpl) provisionalCutoff() time.Time {
	return r.clock.Now().Add(-r.cfg.ProvisionalTTL)
}

func (r *reservationUseCaseImpl) conflictFromStore(ctx context.Context, unitID uuid.UUID, stay booking.DateRange) error {
	conflict, err := r.bookings.FindBlocking(ctx, nil, unitID, stay, r.provisionalCutoff())
	if err != nil || conflict == nil {
		return errs.ErrBookingConflict
	}
	return &ConflictError{Conflict: *conflict}
}

func (r *reservationUseCaseImpl) enqueueBookingEvent(ctx context.Context, tx db.DBTX, b *booking.Booking, topic string) error {
	payload, err := json.Marshal(map[string]any{
		"booking_id": b.ID(),
		"reference":  b.Reference().String(),
		"status":     b.Status().String(),
	})
	if err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if err := r.notification.CreateJob(ctx, tx, "email", topic, payload, r.clock.Now()); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}
