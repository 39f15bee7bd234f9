package booking

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidRange   = errors.New("invalid date range")
	ErrRangeInPast    = errors.New("date range starts in the past")
	ErrInvalidGuests  = errors.New("guest count must be at least 1")
	ErrOverCapacity   = errors.New("guest count exceeds unit capacity")
	ErrInvalidRate    = errors.New("nightly rate must be positive")
	ErrEmptyReference = errors.New("booking reference cannot be empty")
)

// DateRange is a half-open stay interval [start, end): the start date is
// occupied, the end date is free. A stay of N nights covers N date slots,
// so checkout and check-in on the same day never collide.
type DateRange struct {
	start time.Time
	end   time.Time
}

func NewDateRange(start, end time.Time) (DateRange, error) {
	start = truncateToDate(start)
	end = truncateToDate(end)
	if !start.Before(end) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{start: start, end: end}, nil
}

// NewFutureDateRange additionally rejects ranges starting before today.
func NewFutureDateRange(start, end, now time.Time) (DateRange, error) {
	dr, err := NewDateRange(start, end)
	if err != nil {
		return DateRange{}, err
	}
	if dr.start.Before(truncateToDate(now)) {
		return DateRange{}, ErrRangeInPast
	}
	return dr, nil
}

func (d DateRange) Start() time.Time { return d.start }
func (d DateRange) End() time.Time   { return d.end }

func (d DateRange) Nights() int {
	return int(d.end.Sub(d.start).Hours() / 24)
}

// Overlaps implements half-open interval overlap: s1 < e2 && s2 < e1.
func (d DateRange) Overlaps(other DateRange) bool {
	return d.start.Before(other.end) && other.start.Before(d.end)
}

// ToDaterange renders the range for a Postgres daterange column.
func (d DateRange) ToDaterange() string {
	return fmt.Sprintf("[%s,%s)", d.start.Format(time.DateOnly), d.end.Format(time.DateOnly))
}

func truncateToDate(t time.Time) time.Time {
	y, m, day := t.UTC().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// Reference is the human-facing booking handle, unique and never reused.
// Format matches what the UI shows: BK-<millis base36>-<5 random chars>.
type Reference struct {
	value string
}

const refSuffixAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func NewReference(now time.Time) Reference {
	var sb strings.Builder
	for range 5 {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(refSuffixAlphabet))))
		if err != nil {
			// crypto/rand only fails if the OS entropy source is broken
			panic(err)
		}
		sb.WriteByte(refSuffixAlphabet[n.Int64()])
	}
	ts := strconv.FormatInt(now.UnixMilli(), 36)
	return Reference{value: "BK-" + strings.ToUpper(ts) + "-" + sb.String()}
}

func ParseReference(value string) (Reference, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Reference{}, ErrEmptyReference
	}
	return Reference{value: value}, nil
}

func (r Reference) String() string { return r.value }
