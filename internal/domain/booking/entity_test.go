//go:build unit

package booking_test

import (
	"testing"
	"time"

	"nyumbani/internal/domain/booking"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBooking(t *testing.T) *booking.Booking {
	t.Helper()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	stay := mustRange(t, "2026-03-10", "2026-03-13")

	b, err := booking.NewBooking(
		uuid.New(), uuid.New(), stay, 2, 4, 10000,
		booking.FeeSchedule{CleaningFeeCents: 2000, SecurityDepositCents: 5000, ServiceFeePercent: 12},
		now,
	)
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	t.Run("starts provisional with computed price", func(t *testing.T) {
		b := newTestBooking(t)

		assert.NotEqual(t, uuid.Nil, b.ID())
		assert.NotEmpty(t, b.Reference().String())
		assert.Equal(t, booking.StatusProvisional, b.Status())
		assert.Equal(t, int64(40600), b.Price().TotalCents)
		assert.Equal(t, b.CreatedAt(), b.UpdatedAt())
	})

	t.Run("guest validation", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		stay := mustRange(t, "2026-03-10", "2026-03-13")

		_, err := booking.NewBooking(uuid.New(), uuid.New(), stay, 0, 4, 10000, booking.FeeSchedule{}, now)
		assert.ErrorIs(t, err, booking.ErrInvalidGuests)

		_, err = booking.NewBooking(uuid.New(), uuid.New(), stay, 5, 4, 10000, booking.FeeSchedule{}, now)
		assert.ErrorIs(t, err, booking.ErrOverCapacity)

		_, err = booking.NewBooking(uuid.New(), uuid.New(), stay, 4, 4, 10000, booking.FeeSchedule{}, now)
		assert.NoError(t, err)
	})
}

func TestBookingTransitions(t *testing.T) {
	later := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)

	t.Run("provisional to confirmed to completed", func(t *testing.T) {
		b := newTestBooking(t)

		require.NoError(t, b.Confirm(later))
		assert.Equal(t, booking.StatusConfirmed, b.Status())

		require.NoError(t, b.Complete(later))
		assert.Equal(t, booking.StatusCompleted, b.Status())
	})

	t.Run("cancellation allowed before completion only", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Cancel(later))

		b = newTestBooking(t)
		require.NoError(t, b.Confirm(later))
		require.NoError(t, b.Cancel(later))

		b = newTestBooking(t)
		require.NoError(t, b.Confirm(later))
		require.NoError(t, b.Complete(later))
		assert.ErrorIs(t, b.Cancel(later), booking.ErrInvalidTransition)
	})

	t.Run("dispute path", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Confirm(later))
		require.NoError(t, b.Dispute(later))
		assert.Equal(t, booking.StatusDisputed, b.Status())

		assert.ErrorIs(t, b.Cancel(later), booking.ErrInvalidTransition)

		require.NoError(t, b.Resolve(later))
		assert.Equal(t, booking.StatusResolved, b.Status())
	})

	t.Run("terminal statuses reject everything", func(t *testing.T) {
		b := newTestBooking(t)
		require.NoError(t, b.Cancel(later))

		assert.ErrorIs(t, b.Confirm(later), booking.ErrInvalidTransition)
		assert.ErrorIs(t, b.Complete(later), booking.ErrInvalidTransition)
		assert.ErrorIs(t, b.Dispute(later), booking.ErrInvalidTransition)
	})

	t.Run("provisional cannot skip to completed", func(t *testing.T) {
		b := newTestBooking(t)
		assert.ErrorIs(t, b.Complete(later), booking.ErrInvalidTransition)
	})
}

func TestStaleProvisional(t *testing.T) {
	ttl := 15 * time.Minute
	b := newTestBooking(t)
	created := b.CreatedAt()

	assert.False(t, b.StaleProvisional(created.Add(14*time.Minute), ttl))
	assert.True(t, b.StaleProvisional(created.Add(15*time.Minute), ttl))
	assert.True(t, b.StaleProvisional(created.Add(time.Hour), ttl))

	// Confirmed bookings never go stale.
	require.NoError(t, b.Confirm(created.Add(time.Minute)))
	assert.False(t, b.StaleProvisional(created.Add(time.Hour), ttl))
}

func TestStatusProperties(t *testing.T) {
	blocking := map[booking.Status]bool{
		booking.StatusProvisional: true,
		booking.StatusConfirmed:   true,
		booking.StatusCompleted:   true,
		booking.StatusDisputed:    false,
		booking.StatusCancelled:   false,
		booking.StatusResolved:    false,
	}
	for status, want := range blocking {
		assert.Equal(t, want, status.Blocks(), "status %s", status)
	}
	assert.ElementsMatch(t,
		[]booking.Status{booking.StatusProvisional, booking.StatusConfirmed, booking.StatusCompleted},
		booking.BlockingStatuses(),
	)

	assert.False(t, booking.Status("unknown").IsValid())
	assert.True(t, booking.StatusCancelled.IsTerminal())
	assert.False(t, booking.StatusDisputed.IsTerminal())
}
