package request

import (
	"time"

	"github.com/google/uuid"
)

// Stay dates travel as calendar dates, not instants. A stay of
// 2026-03-01..2026-03-04 occupies the nights of the 1st through the 3rd;
// checkout day is free for the next guest.
const dateLayout = time.DateOnly

type CreateBookingRequest struct {
	UnitID uuid.UUID `json:"unit_id" binding:"required"`
	Start  string    `json:"start" binding:"required"`
	End    string    `json:"end" binding:"required"`
	Guests int       `json:"guests" binding:"required,min=1"`
}

func (r CreateBookingRequest) StayDates() (time.Time, time.Time, error) {
	return parseStay(r.Start, r.End)
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// StayQuery binds the quote and availability query strings.
type StayQuery struct {
	Start string `form:"start" binding:"required"`
	End   string `form:"end" binding:"required"`
}

func (q StayQuery) StayDates() (time.Time, time.Time, error) {
	return parseStay(q.Start, q.End)
}

func parseStay(start, end string) (time.Time, time.Time, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return s, e, nil
}
