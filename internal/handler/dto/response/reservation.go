package response

import (
	"time"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/usecase"

	"github.com/google/uuid"
)

type QuoteResponse struct {
	Nights               int   `json:"nights"`
	SubtotalCents        int64 `json:"subtotalCents"`
	ServiceFeeCents      int64 `json:"serviceFeeCents"`
	CleaningFeeCents     int64 `json:"cleaningFeeCents"`
	SecurityDepositCents int64 `json:"securityDepositCents"`
	TotalCents           int64 `json:"totalCents"`
}

func FromQuote(q *booking.PriceBreakdown) *QuoteResponse {
	return &QuoteResponse{
		Nights:               q.Nights,
		SubtotalCents:        q.SubtotalCents,
		ServiceFeeCents:      q.ServiceFeeCents,
		CleaningFeeCents:     q.CleaningFeeCents,
		SecurityDepositCents: q.SecurityDepositCents,
		TotalCents:           q.TotalCents,
	}
}

type ConflictDetail struct {
	Reference string `json:"reference"`
	Start     string `json:"start"`
	End       string `json:"end"`
}

func FromConflict(c *usecase.ConflictSummary) *ConflictDetail {
	return &ConflictDetail{
		Reference: c.Reference,
		Start:     c.Start.Format(time.DateOnly),
		End:       c.End.Format(time.DateOnly),
	}
}

type AvailabilityResponse struct {
	Available bool            `json:"available"`
	Conflict  *ConflictDetail `json:"conflict,omitempty"`
}

func FromAvailability(r *usecase.AvailabilityResult) *AvailabilityResponse {
	resp := &AvailabilityResponse{Available: r.Available}
	if r.Conflict != nil {
		resp.Conflict = FromConflict(r.Conflict)
	}
	return resp
}

type BookingResponse struct {
	ID                   uuid.UUID `json:"id"`
	Reference            string    `json:"reference"`
	UnitID               uuid.UUID `json:"unitId"`
	Start                string    `json:"start"`
	End                  string    `json:"end"`
	Nights               int       `json:"nights"`
	Guests               int       `json:"guests"`
	Status               string    `json:"status"`
	SubtotalCents        int64     `json:"subtotalCents"`
	ServiceFeeCents      int64     `json:"serviceFeeCents"`
	CleaningFeeCents     int64     `json:"cleaningFeeCents"`
	SecurityDepositCents int64     `json:"securityDepositCents"`
	TotalCents           int64     `json:"totalCents"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func FromBookingView(v *usecase.BookingView) *BookingResponse {
	return &BookingResponse{
		ID:                   v.ID,
		Reference:            v.Reference,
		UnitID:               v.UnitID,
		Start:                v.Start.Format(time.DateOnly),
		End:                  v.End.Format(time.DateOnly),
		Nights:               v.Nights,
		Guests:               v.Guests,
		Status:               v.Status,
		SubtotalCents:        v.SubtotalCents,
		ServiceFeeCents:      v.ServiceFeeCents,
		CleaningFeeCents:     v.CleaningFeeCents,
		SecurityDepositCents: v.SecurityDepositCents,
		TotalCents:           v.TotalCents,
		CreatedAt:            v.CreatedAt,
		UpdatedAt:            v.UpdatedAt,
	}
}
