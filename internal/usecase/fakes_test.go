//go:build unit

package usecase_test

import (
	"context"
	"sync"
	"time"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/domain/payment"
	"nyumbani/internal/infra"
	"nyumbani/internal/infra/db"
	"nyumbani/internal/infra/gateway/daraja"
	"nyumbani/internal/usecase"

	"github.com/google/uuid"
)

// In-memory fakes that mirror the persistence contract, including the
// exclusion-constraint conflict on overlapping inserts.

type fakeUnitRepo struct {
	units map[uuid.UUID]*usecase.UnitSnapshot
}

func newFakeUnitRepo() *fakeUnitRepo {
	return &fakeUnitRepo{units: make(map[uuid.UUID]*usecase.UnitSnapshot)}
}

func (r *fakeUnitRepo) add(u usecase.UnitSnapshot) {
	r.units[u.ID] = &u
}

func (r *fakeUnitRepo) FindByID(_ context.Context, id uuid.UUID) (*usecase.UnitSnapshot, error) {
	u, ok := r.units[id]
	if !ok {
		return nil, infra.WrapRepoErr("unit not found", nil, infra.KindNotFound)
	}
	return u, nil
}

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*booking.Booking)}
}

// cloneBooking hands back a detached copy, the way a real repository
// reconstructs an entity from a scanned row. Callers mutating the result
// must not see it reflected in the store until an explicit write.
func cloneBooking(b *booking.Booking) *booking.Booking {
	return booking.Reconstruct(
		b.ID(), b.Reference(), b.UnitID(), b.RequesterID(), b.Stay(),
		b.Guests(), b.Status(), b.Price(), b.CreatedAt(), b.UpdatedAt(),
	)
}

func (r *fakeBookingRepo) findBlockingLocked(unitID uuid.UUID, stay booking.DateRange, cutoff time.Time, exclude uuid.UUID) *booking.Booking {
	for _, b := range r.bookings {
		if b.UnitID() != unitID || b.ID() == exclude {
			continue
		}
		if !b.Status().Blocks() || !b.Stay().Overlaps(stay) {
			continue
		}
		if b.Status() == booking.StatusProvisional && b.CreatedAt().Before(cutoff) {
			continue
		}
		return b
	}
	return nil
}

func (r *fakeBookingRepo) Create(_ context.Context, _ db.DBTX, b *booking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	// The exclusion constraint never honors the TTL cutoff; it sees every
	// blocking-status row.
	if blocking := r.findBlockingLocked(b.UnitID(), b.Stay(), time.Time{}, b.ID()); blocking != nil {
		return infra.WrapRepoErr("overlapping stay", nil, infra.KindConflict)
	}
	r.bookings[b.ID()] = b
	return nil
}

// setStatus force-writes a status, standing in for transitions no usecase
// operation drives (operator actions like disputes).
func (r *fakeBookingRepo) setStatus(id uuid.UUID, to booking.Status, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.bookings[id]
	r.bookings[id] = booking.Reconstruct(
		b.ID(), b.Reference(), b.UnitID(), b.RequesterID(), b.Stay(),
		b.Guests(), to, b.Price(), b.CreatedAt(), now,
	)
}

func (r *fakeBookingRepo) FindByRef(_ context.Context, _ db.DBTX, ref booking.Reference) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.Reference().String() == ref.String() {
			return cloneBooking(b), nil
		}
	}
	return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
}

func (r *fakeBookingRepo) FindByRefForUpdate(ctx context.Context, tx db.DBTX, ref booking.Reference) (*booking.Booking, error) {
	return r.FindByRef(ctx, tx, ref)
}

func (r *fakeBookingRepo) FindByID(_ context.Context, _ db.DBTX, id uuid.UUID) (*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, infra.WrapRepoErr("booking not found", nil, infra.KindNotFound)
	}
	return cloneBooking(b), nil
}

func (r *fakeBookingRepo) ListByRequester(_ context.Context, requesterID uuid.UUID) ([]*booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*booking.Booking
	for _, b := range r.bookings {
		if b.RequesterID() == requesterID {
			out = append(out, cloneBooking(b))
		}
	}
	return out, nil
}

func (r *fakeBookingRepo) FindBlocking(_ context.Context, _ db.DBTX, unitID uuid.UUID, stay booking.DateRange, cutoff time.Time) (*usecase.ConflictSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := r.findBlockingLocked(unitID, stay, cutoff, uuid.Nil)
	if b == nil {
		return nil, nil
	}
	return &usecase.ConflictSummary{
		Reference: b.Reference().String(),
		Start:     b.Stay().Start(),
		End:       b.Stay().End(),
	}, nil
}

func (r *fakeBookingRepo) UpdateStatus(_ context.Context, _ db.DBTX, id uuid.UUID, from, to booking.Status, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok || b.Status() != from {
		return false, nil
	}
	r.bookings[id] = booking.Reconstruct(
		b.ID(), b.Reference(), b.UnitID(), b.RequesterID(), b.Stay(),
		b.Guests(), to, b.Price(), b.CreatedAt(), now,
	)
	return true, nil
}

func (r *fakeBookingRepo) ExpireStaleInRange(_ context.Context, _ db.DBTX, unitID uuid.UUID, stay booking.DateRange, cutoff, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, b := range r.bookings {
		if b.UnitID() != unitID || !b.Stay().Overlaps(stay) {
			continue
		}
		if b.Status() == booking.StatusProvisional && b.CreatedAt().Before(cutoff) {
			r.bookings[id] = booking.Reconstruct(
				b.ID(), b.Reference(), b.UnitID(), b.RequesterID(), b.Stay(),
				b.Guests(), booking.StatusCancelled, b.Price(), b.CreatedAt(), now,
			)
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) ExpireStale(_ context.Context, cutoff, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, b := range r.bookings {
		if b.Status() == booking.StatusProvisional && b.CreatedAt().Before(cutoff) {
			r.bookings[id] = booking.Reconstruct(
				b.ID(), b.Reference(), b.UnitID(), b.RequesterID(), b.Stay(),
				b.Guests(), booking.StatusCancelled, b.Price(), b.CreatedAt(), now,
			)
			n++
		}
	}
	return n, nil
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts map[string]*payment.Attempt // by correlation id
}

func newFakeAttemptRepo() *fakeAttemptRepo {
	return &fakeAttemptRepo{attempts: make(map[string]*payment.Attempt)}
}

func (r *fakeAttemptRepo) Create(_ context.Context, _ db.DBTX, a *payment.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.attempts[a.CorrelationID()]; exists {
		return infra.WrapRepoErr("duplicate correlation id", nil, infra.KindDuplicateKey)
	}
	r.attempts[a.CorrelationID()] = a
	return nil
}

func (r *fakeAttemptRepo) FindByCorrelationID(_ context.Context, _ db.DBTX, correlationID string) (*payment.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[correlationID]
	if !ok {
		return nil, infra.WrapRepoErr("attempt not found", nil, infra.KindNotFound)
	}
	return a, nil
}

func (r *fakeAttemptRepo) FindByCorrelationIDForUpdate(ctx context.Context, tx db.DBTX, correlationID string) (*payment.Attempt, error) {
	return r.FindByCorrelationID(ctx, tx, correlationID)
}

func (r *fakeAttemptRepo) FindCompletedByBooking(_ context.Context, _ db.DBTX, bookingID uuid.UUID) (*payment.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.BookingID() == bookingID && a.Status() == payment.StatusCompleted {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAttemptRepo) Finalize(_ context.Context, _ db.DBTX, a *payment.Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[a.CorrelationID()] = a
	return nil
}

func (r *fakeAttemptRepo) ListPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]*payment.Attempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*payment.Attempt
	for _, a := range r.attempts {
		if a.Status() == payment.StatusPending && a.CreatedAt().Before(cutoff) {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeNotificationJobs struct {
	mu     sync.Mutex
	topics []string
}

func (r *fakeNotificationJobs) CreateJob(_ context.Context, _ db.DBTX, _, topic string, _ []byte, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

// fakeTxRunner runs the function directly; the fakes above are their own
// source of atomicity.
type fakeTxRunner struct{}

func (fakeTxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	return fn(ctx, nil)
}

// scripted gateway responses, consumed in order; the last entry repeats.
type gatewayStep struct {
	result daraja.QueryResult
	err    error
}

type fakeGateway struct {
	mu            sync.Mutex
	pushErr       error
	correlationID string
	pushCalls     int
	steps         []gatewayStep
	queryCalls    int
}

func (g *fakeGateway) InitiatePush(_ context.Context, _ string, _ int64, _, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushCalls++
	if g.pushErr != nil {
		return "", g.pushErr
	}
	return g.correlationID, nil
}

func (g *fakeGateway) QueryStatus(_ context.Context, _ string) (daraja.QueryResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.queryCalls
	g.queryCalls++
	if idx >= len(g.steps) {
		idx = len(g.steps) - 1
	}
	step := g.steps[idx]
	return step.result, step.err
}
