package api

import (
	"errors"
	"net/http"

	reqdto "nyumbani/internal/handler/dto/request"
	resdto "nyumbani/internal/handler/dto/response"
	"nyumbani/internal/handler/middleware"
	"nyumbani/internal/infra/gateway/daraja"
	"nyumbani/internal/pkg/errs"
	"nyumbani/internal/usecase"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentUseCase usecase.PaymentUseCase
}

func NewPaymentHandler(paymentUseCase usecase.PaymentUseCase) *PaymentHandler {
	return &PaymentHandler{
		paymentUseCase: paymentUseCase,
	}
}

// @Summary Initiate payment
// @Description Push a mobile-money payment prompt for a provisional booking
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.InitiatePaymentRequest true "Payment request"
// @Success 202 {object} resdto.AttemptResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /payments [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.InitiatePaymentRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	view, err := h.paymentUseCase.Initiate(c.Request.Context(), usecase.InitiateParams{
		BookingRef:  req.BookingRef,
		RequesterID: userID,
		Phone:       req.Phone,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, resdto.FromAttemptView(view))
}

// @Summary Payment status
// @Description Poll the gateway for the attempt's outcome and report the stored state
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param correlationId path string true "Gateway correlation ID"
// @Success 200 {object} resdto.PaymentStatusResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /payments/{correlationId}/status [get]
func (h *PaymentHandler) Status(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	view, err := h.paymentUseCase.CheckStatus(c.Request.Context(), c.Param("correlationId"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromPaymentStatus(view))
}

// @Summary Payment callback
// @Description Gateway-facing result callback; always acknowledged
// @Tags payments
// @Accept json
// @Produce json
// @Success 200 {object} daraja.CallbackAck
// @Router /payments/callback [post]
func (h *PaymentHandler) Callback(c *gin.Context) {
	var env daraja.CallbackEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		// Malformed payloads are still acked so the gateway stops retrying.
		c.JSON(http.StatusOK, daraja.CallbackAck{ResultCode: 0, ResultDesc: "Accepted"})
		return
	}

	if err := h.paymentUseCase.HandleCallback(c.Request.Context(), env); err != nil {
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, daraja.CallbackAck{ResultCode: 0, ResultDesc: "Accepted"})
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, errs.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment attempt not found"})
	case errors.Is(err, errs.ErrAlreadyFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking already paid"})
	case errors.Is(err, errs.ErrGatewayUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment gateway unavailable"})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
