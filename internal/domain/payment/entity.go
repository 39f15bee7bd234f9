package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount    = errors.New("payment amount must be positive")
	ErrMissingReceipt   = errors.New("completed attempt requires a receipt")
	ErrAlreadyFinalized = errors.New("payment attempt already finalized")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string { return string(s) }

func (s Status) IsFinal() bool { return s != StatusPending }

// Attempt tracks one push-payment round trip with the gateway. The
// correlation id is the gateway's handle for the original push; the receipt
// is the idempotency anchor recorded exactly once on completion.
type Attempt struct {
	id            uuid.UUID
	bookingID     uuid.UUID
	correlationID string
	amountCents   int64
	status        Status
	receipt       string
	createdAt     time.Time
	updatedAt     time.Time
}

func NewAttempt(bookingID uuid.UUID, correlationID string, amountCents int64, now time.Time) (*Attempt, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	return &Attempt{
		id:            uuid.New(),
		bookingID:     bookingID,
		correlationID: correlationID,
		amountCents:   amountCents,
		status:        StatusPending,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

func ReconstructAttempt(
	id, bookingID uuid.UUID,
	correlationID string,
	amountCents int64,
	status Status,
	receipt string,
	createdAt, updatedAt time.Time,
) *Attempt {
	return &Attempt{
		id:            id,
		bookingID:     bookingID,
		correlationID: correlationID,
		amountCents:   amountCents,
		status:        status,
		receipt:       receipt,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// Complete finalizes the attempt with the gateway receipt. Re-applying the
// same receipt is a no-op; any other finalization of a final attempt fails.
func (a *Attempt) Complete(receipt string, now time.Time) error {
	if receipt == "" {
		return ErrMissingReceipt
	}
	if a.status.IsFinal() {
		if a.status == StatusCompleted && a.receipt == receipt {
			return nil
		}
		return ErrAlreadyFinalized
	}
	a.status = StatusCompleted
	a.receipt = receipt
	a.updatedAt = now
	return nil
}

func (a *Attempt) Fail(now time.Time) error {
	return a.finalize(StatusFailed, now)
}

func (a *Attempt) CancelByPayer(now time.Time) error {
	return a.finalize(StatusCancelled, now)
}

func (a *Attempt) finalize(next Status, now time.Time) error {
	if a.status.IsFinal() {
		if a.status == next {
			return nil
		}
		return ErrAlreadyFinalized
	}
	a.status = next
	a.updatedAt = now
	return nil
}

// TimedOut reports whether a pending attempt has outlived the reconciliation
// window and should be abandoned to the provisional TTL sweep.
func (a *Attempt) TimedOut(now time.Time, window time.Duration) bool {
	return a.status == StatusPending && now.Sub(a.createdAt) >= window
}

func (a *Attempt) ID() uuid.UUID         { return a.id }
func (a *Attempt) BookingID() uuid.UUID  { return a.bookingID }
func (a *Attempt) CorrelationID() string { return a.correlationID }
func (a *Attempt) AmountCents() int64    { return a.amountCents }
func (a *Attempt) Status() Status        { return a.status }
func (a *Attempt) Receipt() string       { return a.receipt }
func (a *Attempt) CreatedAt() time.Time  { return a.createdAt }
func (a *Attempt) UpdatedAt() time.Time  { return a.updatedAt }
