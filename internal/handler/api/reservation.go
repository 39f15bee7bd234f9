package api

import (
	"errors"
	"net/http"

	reqdto "nyumbani/internal/handler/dto/request"
	resdto "nyumbani/internal/handler/dto/response"
	"nyumbani/internal/handler/middleware"
	"nyumbani/internal/pkg/errs"
	"nyumbani/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	reservationUseCase usecase.ReservationUseCase
}

func NewReservationHandler(reservationUseCase usecase.ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{
		reservationUseCase: reservationUseCase,
	}
}

// @Summary Quote a stay
// @Description Price breakdown for a unit and date range, without reserving
// @Tags units
// @Produce json
// @Param id path string true "Unit ID"
// @Param start query string true "Check-in date (YYYY-MM-DD)"
// @Param end query string true "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} resdto.QuoteResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /units/{id}/quote [get]
func (h *ReservationHandler) Quote(c *gin.Context) {
	unitID, query, ok := h.bindStayQuery(c)
	if !ok {
		return
	}

	start, end, err := query.StayDates()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, want YYYY-MM-DD"})
		return
	}

	quote, err := h.reservationUseCase.Quote(c.Request.Context(), usecase.QuoteParams{
		UnitID: unitID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromQuote(quote))
}

// @Summary Check availability
// @Description Advisory availability check for a unit and date range
// @Tags units
// @Produce json
// @Param id path string true "Unit ID"
// @Param start query string true "Check-in date (YYYY-MM-DD)"
// @Param end query string true "Check-out date (YYYY-MM-DD)"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /units/{id}/availability [get]
func (h *ReservationHandler) Availability(c *gin.Context) {
	unitID, query, ok := h.bindStayQuery(c)
	if !ok {
		return
	}

	start, end, err := query.StayDates()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, want YYYY-MM-DD"})
		return
	}

	result, err := h.reservationUseCase.CheckAvailability(c.Request.Context(), usecase.AvailabilityParams{
		UnitID: unitID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromAvailability(result))
}

// @Summary Create booking
// @Description Place a provisional hold on a unit for a date range
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.BookingResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /bookings [post]
func (h *ReservationHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	start, end, err := req.StayDates()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format, want YYYY-MM-DD"})
		return
	}

	view, err := h.reservationUseCase.Create(c.Request.Context(), usecase.CreateParams{
		UnitID:      req.UnitID,
		RequesterID: userID,
		Start:       start,
		End:         end,
		Guests:      req.Guests,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromBookingView(view))
}

// @Summary List bookings
// @Description All bookings of the current user
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.BookingResponse
// @Failure 401 {object} map[string]string
// @Router /bookings [get]
func (h *ReservationHandler) ListBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views, err := h.reservationUseCase.ListByRequester(c.Request.Context(), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	response := make([]*resdto.BookingResponse, len(views))
	for i, v := range views {
		response[i] = resdto.FromBookingView(v)
	}
	c.JSON(http.StatusOK, response)
}

// @Summary Get booking
// @Description Booking by reference, scoped to the current user
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Booking reference"
// @Success 200 {object} resdto.BookingResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /bookings/{ref} [get]
func (h *ReservationHandler) GetBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	view, err := h.reservationUseCase.GetByRef(c.Request.Context(), c.Param("ref"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

// @Summary Cancel booking
// @Description Cancel a provisional or confirmed booking, freeing its dates
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param ref path string true "Booking reference"
// @Param request body reqdto.CancelBookingRequest false "Cancellation reason"
// @Success 200 {object} resdto.BookingResponse
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /bookings/{ref}/cancel [post]
func (h *ReservationHandler) CancelBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var req reqdto.CancelBookingRequest
	_ = c.ShouldBindJSON(&req)

	view, err := h.reservationUseCase.Cancel(c.Request.Context(), c.Param("ref"), userID, req.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

func (h *ReservationHandler) bindStayQuery(c *gin.Context) (uuid.UUID, reqdto.StayQuery, bool) {
	unitID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid unit ID format"})
		return uuid.Nil, reqdto.StayQuery{}, false
	}

	var query reqdto.StayQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end query parameters are required"})
		return uuid.Nil, reqdto.StayQuery{}, false
	}
	return unitID, query, true
}

func (h *ReservationHandler) writeError(c *gin.Context, err error) {
	var conflict *usecase.ConflictError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Requested dates are no longer available",
			"conflict": resdto.FromConflict(&conflict.Conflict),
		})
	case errors.Is(err, errs.ErrBookingConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Requested dates are no longer available"})
	case errors.Is(err, errs.ErrUnitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Unit not found"})
	case errors.Is(err, errs.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.Is(err, errs.ErrNotCancellable):
		c.JSON(http.StatusConflict, gin.H{"error": "Booking can no longer be cancelled"})
	case errors.Is(err, errs.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
