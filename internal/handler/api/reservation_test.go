//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/handler/api"
	"nyumbani/internal/pkg/errs"
	"nyumbani/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

// stubReservations implements usecase.ReservationUseCase with function
// fields so each test scripts exactly the call it expects.
type stubReservations struct {
	quote  func(context.Context, usecase.QuoteParams) (*booking.PriceBreakdown, error)
	check  func(context.Context, usecase.AvailabilityParams) (*usecase.AvailabilityResult, error)
	create func(context.Context, usecase.CreateParams) (*usecase.BookingView, error)
	get    func(context.Context, string, uuid.UUID) (*usecase.BookingView, error)
	list   func(context.Context, uuid.UUID) ([]*usecase.BookingView, error)
	cancel func(context.Context, string, uuid.UUID, string) (*usecase.BookingView, error)
}

func (s *stubReservations) Quote(ctx context.Context, p usecase.QuoteParams) (*booking.PriceBreakdown, error) {
	return s.quote(ctx, p)
}

func (s *stubReservations) CheckAvailability(ctx context.Context, p usecase.AvailabilityParams) (*usecase.AvailabilityResult, error) {
	return s.check(ctx, p)
}

func (s *stubReservations) Create(ctx context.Context, p usecase.CreateParams) (*usecase.BookingView, error) {
	return s.create(ctx, p)
}

func (s *stubReservations) GetByRef(ctx context.Context, ref string, requesterID uuid.UUID) (*usecase.BookingView, error) {
	return s.get(ctx, ref, requesterID)
}

func (s *stubReservations) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*usecase.BookingView, error) {
	return s.list(ctx, requesterID)
}

func (s *stubReservations) Cancel(ctx context.Context, ref string, requesterID uuid.UUID, reason string) (*usecase.BookingView, error) {
	return s.cancel(ctx, ref, requesterID, reason)
}

func (s *stubReservations) ExpireStaleProvisionals(context.Context) (int64, error) {
	panic("not used by handlers")
}

type ReservationHandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	stub   *stubReservations
	userID uuid.UUID
}

func (s *ReservationHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.stub = &stubReservations{}
	s.userID = uuid.New()

	handler := api.NewReservationHandler(s.stub)

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Next()
	}

	s.router.GET("/api/units/:id/quote", handler.Quote)
	s.router.GET("/api/units/:id/availability", handler.Availability)
	s.router.POST("/api/bookings", authMiddleware, handler.CreateBooking)
	s.router.GET("/api/bookings", authMiddleware, handler.ListBookings)
	s.router.GET("/api/bookings/:ref", authMiddleware, handler.GetBooking)
	s.router.POST("/api/bookings/:ref/cancel", authMiddleware, handler.CancelBooking)
}

func TestReservationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReservationHandlerTestSuite))
}

func (s *ReservationHandlerTestSuite) do(method, url string, body any, authed bool) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, url, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func sampleView(status booking.Status) *usecase.BookingView {
	return &usecase.BookingView{
		ID:         uuid.New(),
		Reference:  "BK-ABC123-XY001",
		UnitID:     uuid.New(),
		Start:      time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC),
		Nights:     3,
		Guests:     2,
		Status:     status.String(),
		TotalCents: 40600,
	}
}

func (s *ReservationHandlerTestSuite) TestQuote() {
	unitID := uuid.New()

	s.Run("success", func() {
		s.stub.quote = func(_ context.Context, p usecase.QuoteParams) (*booking.PriceBreakdown, error) {
			s.Equal(unitID, p.UnitID)
			return &booking.PriceBreakdown{Nights: 3, SubtotalCents: 30000, ServiceFeeCents: 3600, TotalCents: 40600}, nil
		}

		rec := s.do(http.MethodGet, "/api/units/"+unitID.String()+"/quote?start=2026-03-10&end=2026-03-13", nil, false)

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"totalCents":40600`)
	})

	s.Run("missing query params", func() {
		rec := s.do(http.MethodGet, "/api/units/"+unitID.String()+"/quote", nil, false)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("bad date format", func() {
		rec := s.do(http.MethodGet, "/api/units/"+unitID.String()+"/quote?start=10-03-2026&end=2026-03-13", nil, false)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown unit", func() {
		s.stub.quote = func(context.Context, usecase.QuoteParams) (*booking.PriceBreakdown, error) {
			return nil, errs.ErrUnitNotFound
		}
		rec := s.do(http.MethodGet, "/api/units/"+unitID.String()+"/quote?start=2026-03-10&end=2026-03-13", nil, false)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("invalid range", func() {
		s.stub.quote = func(context.Context, usecase.QuoteParams) (*booking.PriceBreakdown, error) {
			return nil, errs.Mark(booking.ErrInvalidRange, errs.ErrValidation)
		}
		rec := s.do(http.MethodGet, "/api/units/"+unitID.String()+"/quote?start=2026-03-13&end=2026-03-10", nil, false)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestCreateBooking() {
	reqBody := map[string]any{
		"unit_id": uuid.New().String(),
		"start":   "2026-03-10",
		"end":     "2026-03-13",
		"guests":  2,
	}

	s.Run("created", func() {
		s.stub.create = func(_ context.Context, p usecase.CreateParams) (*usecase.BookingView, error) {
			s.Equal(s.userID, p.RequesterID)
			s.Equal(2, p.Guests)
			return sampleView(booking.StatusProvisional), nil
		}

		rec := s.do(http.MethodPost, "/api/bookings", reqBody, true)

		s.Equal(http.StatusCreated, rec.Code)
		s.Contains(rec.Body.String(), `"status":"provisional"`)
	})

	s.Run("unauthenticated", func() {
		rec := s.do(http.MethodPost, "/api/bookings", reqBody, false)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})

	s.Run("conflict carries the blocking range", func() {
		s.stub.create = func(context.Context, usecase.CreateParams) (*usecase.BookingView, error) {
			return nil, &usecase.ConflictError{Conflict: usecase.ConflictSummary{
				Reference: "BK-OTHER-00001",
				Start:     time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
				End:       time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC),
			}}
		}

		rec := s.do(http.MethodPost, "/api/bookings", reqBody, true)

		s.Equal(http.StatusConflict, rec.Code)
		s.Contains(rec.Body.String(), "BK-OTHER-00001")
		s.Contains(rec.Body.String(), "2026-03-09")
	})

	s.Run("over capacity", func() {
		s.stub.create = func(context.Context, usecase.CreateParams) (*usecase.BookingView, error) {
			return nil, errs.Mark(booking.ErrOverCapacity, errs.ErrValidation)
		}
		rec := s.do(http.MethodPost, "/api/bookings", reqBody, true)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("malformed body", func() {
		rec := s.do(http.MethodPost, "/api/bookings", map[string]any{"unit_id": "not-a-uuid"}, true)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *ReservationHandlerTestSuite) TestGetAndCancel() {
	s.Run("get by reference", func() {
		s.stub.get = func(_ context.Context, ref string, requesterID uuid.UUID) (*usecase.BookingView, error) {
			s.Equal("BK-ABC123-XY001", ref)
			s.Equal(s.userID, requesterID)
			return sampleView(booking.StatusConfirmed), nil
		}

		rec := s.do(http.MethodGet, "/api/bookings/BK-ABC123-XY001", nil, true)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"status":"confirmed"`)
	})

	s.Run("not found", func() {
		s.stub.get = func(context.Context, string, uuid.UUID) (*usecase.BookingView, error) {
			return nil, errs.ErrBookingNotFound
		}
		rec := s.do(http.MethodGet, "/api/bookings/BK-NOPE-00000", nil, true)
		s.Equal(http.StatusNotFound, rec.Code)
	})

	s.Run("cancel passes the reason through", func() {
		s.stub.cancel = func(_ context.Context, ref string, _ uuid.UUID, reason string) (*usecase.BookingView, error) {
			s.Equal("plans changed", reason)
			return sampleView(booking.StatusCancelled), nil
		}

		rec := s.do(http.MethodPost, "/api/bookings/BK-ABC123-XY001/cancel", map[string]any{"reason": "plans changed"}, true)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"status":"cancelled"`)
	})

	s.Run("cancel after completion conflicts", func() {
		s.stub.cancel = func(context.Context, string, uuid.UUID, string) (*usecase.BookingView, error) {
			return nil, errs.ErrNotCancellable
		}
		rec := s.do(http.MethodPost, "/api/bookings/BK-ABC123-XY001/cancel", nil, true)
		s.Equal(http.StatusConflict, rec.Code)
	})
}
