package request

type InitiatePaymentRequest struct {
	BookingRef string `json:"booking_ref" binding:"required"`
	Phone      string `json:"phone" binding:"required"`
}
