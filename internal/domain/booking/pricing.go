package booking

import "math"

// FeeSchedule is the per-unit pricing input read from the listing directory.
// All amounts are integer cents; the service fee rate is a percentage.
type FeeSchedule struct {
	CleaningFeeCents     int64
	SecurityDepositCents int64
	ServiceFeePercent    float64
}

const DefaultServiceFeePercent = 12.0

// PriceBreakdown is the authoritative quote for a stay. It is always
// recomputed server-side from the same inputs the client displayed, so a
// tampered client total is never trusted.
type PriceBreakdown struct {
	Nights               int
	SubtotalCents        int64
	ServiceFeeCents      int64
	CleaningFeeCents     int64
	SecurityDepositCents int64
	TotalCents           int64
}

// Quote computes the price breakdown for a stay. Pure: same inputs, same
// output. The service fee rounds half-up to the nearest whole currency
// unit; every other component is taken as given.
func Quote(nightlyRateCents int64, stay DateRange, fees FeeSchedule) (PriceBreakdown, error) {
	if nightlyRateCents <= 0 {
		return PriceBreakdown{}, ErrInvalidRate
	}
	nights := stay.Nights()
	if nights <= 0 {
		return PriceBreakdown{}, ErrInvalidRange
	}

	rate := fees.ServiceFeePercent
	if rate == 0 {
		rate = DefaultServiceFeePercent
	}

	subtotal := nightlyRateCents * int64(nights)
	serviceFee := roundHalfUpToUnit(float64(subtotal) * rate / 100)

	return PriceBreakdown{
		Nights:               nights,
		SubtotalCents:        subtotal,
		ServiceFeeCents:      serviceFee,
		CleaningFeeCents:     fees.CleaningFeeCents,
		SecurityDepositCents: fees.SecurityDepositCents,
		TotalCents:           subtotal + serviceFee + fees.CleaningFeeCents + fees.SecurityDepositCents,
	}, nil
}

// roundHalfUpToUnit rounds a cent amount half-up to a whole currency unit.
func roundHalfUpToUnit(cents float64) int64 {
	return int64(math.Floor(cents/100+0.5)) * 100
}
