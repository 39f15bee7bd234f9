package booking

import "errors"

var ErrInvalidTransition = errors.New("invalid status transition")

type Status string

const (
	StatusProvisional Status = "provisional"
	StatusConfirmed   Status = "confirmed"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
	StatusDisputed    Status = "disputed"
	StatusResolved    Status = "resolved"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusProvisional, StatusConfirmed, StatusCompleted,
		StatusCancelled, StatusDisputed, StatusResolved:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further automatic transition applies.
// Disputed bookings can still move to resolved by operator action.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusResolved:
		return true
	default:
		return false
	}
}

// Blocks reports whether a booking in this status holds its date range
// against other requesters. Disputes concern a stay that already happened,
// so they release the range along with cancelled and resolved bookings.
func (s Status) Blocks() bool {
	switch s {
	case StatusProvisional, StatusConfirmed, StatusCompleted:
		return true
	default:
		return false
	}
}

var allowedTransitions = map[Status][]Status{
	StatusProvisional: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:   {StatusCompleted, StatusCancelled, StatusDisputed},
	StatusDisputed:    {StatusResolved},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BlockingStatuses is the set consulted by availability scans and mirrored
// by the bookings_no_overlap exclusion constraint.
func BlockingStatuses() []Status {
	return []Status{StatusProvisional, StatusConfirmed, StatusCompleted}
}
