package booking

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	id          uuid.UUID
	reference   Reference
	unitID      uuid.UUID
	requesterID uuid.UUID
	stay        DateRange
	guests      int
	status      Status
	price       PriceBreakdown
	createdAt   time.Time
	updatedAt   time.Time
}

// NewBooking creates a provisional booking with a fresh reference. Price is
// computed here from the unit's rate and fee schedule so the persisted
// breakdown can never diverge from the quote inputs.
func NewBooking(
	unitID, requesterID uuid.UUID,
	stay DateRange,
	guests, capacity int,
	nightlyRateCents int64,
	fees FeeSchedule,
	now time.Time,
) (*Booking, error) {
	if guests < 1 {
		return nil, ErrInvalidGuests
	}
	if guests > capacity {
		return nil, ErrOverCapacity
	}

	price, err := Quote(nightlyRateCents, stay, fees)
	if err != nil {
		return nil, err
	}

	return &Booking{
		id:          uuid.New(),
		reference:   NewReference(now),
		unitID:      unitID,
		requesterID: requesterID,
		stay:        stay,
		guests:      guests,
		status:      StatusProvisional,
		price:       price,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func Reconstruct(
	id uuid.UUID,
	reference Reference,
	unitID, requesterID uuid.UUID,
	stay DateRange,
	guests int,
	status Status,
	price PriceBreakdown,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:          id,
		reference:   reference,
		unitID:      unitID,
		requesterID: requesterID,
		stay:        stay,
		guests:      guests,
		status:      status,
		price:       price,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (b *Booking) transition(next Status, now time.Time) error {
	if !b.status.CanTransitionTo(next) {
		return ErrInvalidTransition
	}
	b.status = next
	b.updatedAt = now
	return nil
}

func (b *Booking) Confirm(now time.Time) error  { return b.transition(StatusConfirmed, now) }
func (b *Booking) Complete(now time.Time) error { return b.transition(StatusCompleted, now) }
func (b *Booking) Cancel(now time.Time) error   { return b.transition(StatusCancelled, now) }
func (b *Booking) Dispute(now time.Time) error  { return b.transition(StatusDisputed, now) }
func (b *Booking) Resolve(now time.Time) error  { return b.transition(StatusResolved, now) }

// StaleProvisional reports whether this booking should be reclaimed by the
// TTL sweep: still provisional and past its hold window.
func (b *Booking) StaleProvisional(now time.Time, ttl time.Duration) bool {
	return b.status == StatusProvisional && now.Sub(b.createdAt) >= ttl
}

func (b *Booking) ID() uuid.UUID          { return b.id }
func (b *Booking) Reference() Reference   { return b.reference }
func (b *Booking) UnitID() uuid.UUID      { return b.unitID }
func (b *Booking) RequesterID() uuid.UUID { return b.requesterID }
func (b *Booking) Stay() DateRange        { return b.stay }
func (b *Booking) Guests() int            { return b.guests }
func (b *Booking) Status() Status         { return b.status }
func (b *Booking) Price() PriceBreakdown  { return b.price }
func (b *Booking) CreatedAt() time.Time   { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time   { return b.updatedAt }
