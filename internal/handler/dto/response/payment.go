package response

import (
	"time"

	"nyumbani/internal/usecase"
)

type AttemptResponse struct {
	CorrelationID string    `json:"correlationId"`
	BookingRef    string    `json:"bookingRef"`
	AmountCents   int64     `json:"amountCents"`
	Status        string    `json:"status"`
	Receipt       string    `json:"receipt,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func FromAttemptView(v *usecase.AttemptView) *AttemptResponse {
	return &AttemptResponse{
		CorrelationID: v.CorrelationID,
		BookingRef:    v.BookingRef,
		AmountCents:   v.AmountCents,
		Status:        v.Status,
		Receipt:       v.Receipt,
		CreatedAt:     v.CreatedAt,
	}
}

type PaymentStatusResponse struct {
	Attempt *AttemptResponse `json:"attempt"`
	Booking *BookingResponse `json:"booking"`
}

func FromPaymentStatus(v *usecase.PaymentStatusView) *PaymentStatusResponse {
	return &PaymentStatusResponse{
		Attempt: FromAttemptView(&v.Attempt),
		Booking: FromBookingView(v.Booking),
	}
}
