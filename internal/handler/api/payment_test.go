//go:build unit

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/handler/api"
	"nyumbani/internal/infra/gateway/daraja"
	"nyumbani/internal/pkg/errs"
	"nyumbani/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type stubPayments struct {
	initiate func(context.Context, usecase.InitiateParams) (*usecase.AttemptView, error)
	status   func(context.Context, string, uuid.UUID) (*usecase.PaymentStatusView, error)
	callback func(context.Context, daraja.CallbackEnvelope) error
}

func (s *stubPayments) Initiate(ctx context.Context, p usecase.InitiateParams) (*usecase.AttemptView, error) {
	return s.initiate(ctx, p)
}

func (s *stubPayments) CheckStatus(ctx context.Context, correlationID string, requesterID uuid.UUID) (*usecase.PaymentStatusView, error) {
	return s.status(ctx, correlationID, requesterID)
}

func (s *stubPayments) HandleCallback(ctx context.Context, env daraja.CallbackEnvelope) error {
	return s.callback(ctx, env)
}

func (s *stubPayments) ReconcilePending(context.Context) (int, error) {
	panic("not used by handlers")
}

type PaymentHandlerTestSuite struct {
	suite.Suite
	router *gin.Engine
	stub   *stubPayments
	userID uuid.UUID
}

func (s *PaymentHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.stub = &stubPayments{}
	s.userID = uuid.New()

	handler := api.NewPaymentHandler(s.stub)

	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Set("user_id", s.userID)
		c.Next()
	}

	s.router.POST("/api/payments", authMiddleware, handler.Initiate)
	s.router.GET("/api/payments/:correlationId/status", authMiddleware, handler.Status)
	s.router.POST("/api/payments/callback", handler.Callback)
}

func TestPaymentHandlerSuite(t *testing.T) {
	suite.Run(t, new(PaymentHandlerTestSuite))
}

func (s *PaymentHandlerTestSuite) do(method, url string, body any, authed bool) *httptest.ResponseRecorder {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		s.Require().NoError(err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *PaymentHandlerTestSuite) TestInitiate() {
	reqBody := map[string]any{"booking_ref": "BK-ABC123-XY001", "phone": "254712345678"}

	s.Run("accepted", func() {
		s.stub.initiate = func(_ context.Context, p usecase.InitiateParams) (*usecase.AttemptView, error) {
			s.Equal("BK-ABC123-XY001", p.BookingRef)
			s.Equal(s.userID, p.RequesterID)
			return &usecase.AttemptView{CorrelationID: "ws_CO_0001", BookingRef: p.BookingRef, AmountCents: 40600, Status: "pending"}, nil
		}

		rec := s.do(http.MethodPost, "/api/payments", reqBody, true)

		s.Equal(http.StatusAccepted, rec.Code)
		s.Contains(rec.Body.String(), "ws_CO_0001")
	})

	s.Run("invalid phone", func() {
		s.stub.initiate = func(context.Context, usecase.InitiateParams) (*usecase.AttemptView, error) {
			return nil, errs.Mark(errs.New("invalid phone"), errs.ErrValidation)
		}
		rec := s.do(http.MethodPost, "/api/payments", reqBody, true)
		s.Equal(http.StatusUnprocessableEntity, rec.Code)
	})

	s.Run("already paid", func() {
		s.stub.initiate = func(context.Context, usecase.InitiateParams) (*usecase.AttemptView, error) {
			return nil, errs.ErrAlreadyFinalized
		}
		rec := s.do(http.MethodPost, "/api/payments", reqBody, true)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("gateway down", func() {
		s.stub.initiate = func(context.Context, usecase.InitiateParams) (*usecase.AttemptView, error) {
			return nil, errs.Mark(errs.New("connection refused"), errs.ErrGatewayUnavailable)
		}
		rec := s.do(http.MethodPost, "/api/payments", reqBody, true)
		s.Equal(http.StatusBadGateway, rec.Code)
	})

	s.Run("unauthenticated", func() {
		rec := s.do(http.MethodPost, "/api/payments", reqBody, false)
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

func (s *PaymentHandlerTestSuite) TestStatus() {
	s.Run("reports attempt and booking", func() {
		s.stub.status = func(_ context.Context, correlationID string, requesterID uuid.UUID) (*usecase.PaymentStatusView, error) {
			s.Equal("ws_CO_0001", correlationID)
			s.Equal(s.userID, requesterID)
			return &usecase.PaymentStatusView{
				Attempt: usecase.AttemptView{CorrelationID: correlationID, Status: "completed", Receipt: "RCT123"},
				Booking: sampleView(booking.StatusConfirmed),
			}, nil
		}

		rec := s.do(http.MethodGet, "/api/payments/ws_CO_0001/status", nil, true)

		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), "RCT123")
		s.Contains(rec.Body.String(), `"status":"confirmed"`)
	})

	s.Run("unknown attempt", func() {
		s.stub.status = func(context.Context, string, uuid.UUID) (*usecase.PaymentStatusView, error) {
			return nil, errs.ErrAttemptNotFound
		}
		rec := s.do(http.MethodGet, "/api/payments/ws_CO_missing/status", nil, true)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *PaymentHandlerTestSuite) TestCallback() {
	envelope := map[string]any{
		"Body": map[string]any{
			"stkCallback": map[string]any{
				"CheckoutRequestID": "ws_CO_0001",
				"ResultCode":        0,
				"ResultDesc":        "Success",
			},
		},
	}

	s.Run("acked on success", func() {
		called := false
		s.stub.callback = func(_ context.Context, env daraja.CallbackEnvelope) error {
			called = true
			s.Equal("ws_CO_0001", env.Body.StkCallback.CheckoutRequestID)
			return nil
		}

		rec := s.do(http.MethodPost, "/api/payments/callback", envelope, false)

		s.True(called)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"ResultCode":0`)
	})

	s.Run("acked even when handling fails", func() {
		s.stub.callback = func(context.Context, daraja.CallbackEnvelope) error {
			return errs.New("database unavailable")
		}
		rec := s.do(http.MethodPost, "/api/payments/callback", envelope, false)
		s.Equal(http.StatusOK, rec.Code)
		s.Contains(rec.Body.String(), `"ResultCode":0`)
	})
}
