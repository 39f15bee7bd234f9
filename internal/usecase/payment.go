package usecase

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"nyumbani/internal/domain/booking"
	"nyumbani/internal/domain/payment"
	"nyumbani/internal/infra"
	"nyumbani/internal/infra/db"
	"nyumbani/internal/infra/gateway/daraja"
	"nyumbani/internal/pkg/clock"
	"nyumbani/internal/pkg/config"
	"nyumbani/internal/pkg/errs"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// Safaricom mobile numbers in international form: 2547XXXXXXXX / 2541XXXXXXXX.
var phonePattern = regexp.MustCompile(`^254[17]\d{8}$`)

var errStillPending = errs.New("gateway still processing")

type InitiateParams struct {
	BookingRef  string
	RequesterID uuid.UUID
	Phone       string
}

type AttemptView struct {
	CorrelationID string
	BookingRef    string
	AmountCents   int64
	Status        string
	Receipt       string
	CreatedAt     time.Time
}

type PaymentStatusView struct {
	Attempt AttemptView
	Booking *BookingView
}

type PaymentUseCase interface {
	Initiate(ctx context.Context, p InitiateParams) (*AttemptView, error)
	// CheckStatus polls the gateway until the attempt reaches a final
	// outcome or the polling budget elapses, then reports the stored state.
	CheckStatus(ctx context.Context, correlationID string, requesterID uuid.UUID) (*PaymentStatusView, error)
	HandleCallback(ctx context.Context, env daraja.CallbackEnvelope) error
	// ReconcilePending re-queries pending attempts whose clients stopped
	// polling; returns how many reached a final state.
	ReconcilePending(ctx context.Context) (int, error)
}

type paymentUseCaseImpl struct {
	bookings  BookingRepository
	attempts  PaymentAttemptRepository
	gateway   Gateway
	finalizer ReservationFinalizer
	txRunner  db.TxRunner
	clock     clock.Clock
	cfg       config.GatewayConfig
}

func NewPaymentUseCase(
	bookings BookingRepository,
	attempts PaymentAttemptRepository,
	gateway Gateway,
	finalizer ReservationFinalizer,
	txRunner db.TxRunner,
	clk clock.Clock,
	cfg config.GatewayConfig,
) PaymentUseCase {
	return &paymentUseCaseImpl{
		bookings:  bookings,
		attempts:  attempts,
		gateway:   gateway,
		finalizer: finalizer,
		txRunner:  txRunner,
		clock:     clk,
		cfg:       cfg,
	}
}

func (p *paymentUseCaseImpl) Initiate(ctx context.Context, params InitiateParams) (*AttemptView, error) {
	if !phonePattern.MatchString(params.Phone) {
		return nil, errs.Mark(errs.Newf("invalid phone number %q", params.Phone), errs.ErrValidation)
	}

	ref, err := booking.ParseReference(params.BookingRef)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}

	b, err := p.bookings.FindByRef(ctx, nil, ref)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrBookingNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if b.RequesterID() != params.RequesterID {
		return nil, errs.ErrBookingNotFound
	}

	switch b.Status() {
	case booking.StatusProvisional:
	case booking.StatusConfirmed:
		return nil, errs.ErrAlreadyFinalized
	default:
		return nil, errs.Mark(
			errs.Newf("booking %s is %s, not payable", ref, b.Status()), errs.ErrValidation)
	}

	amount := b.Price().TotalCents
	correlationID, err := p.gateway.InitiatePush(
		ctx, params.Phone, amount, ref.String(), "Nyumbani booking "+ref.String())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrGatewayUnavailable)
	}

	attempt, err := payment.NewAttempt(b.ID(), correlationID, amount, p.clock.Now())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrValidation)
	}
	if err := p.attempts.Create(ctx, nil, attempt); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	slog.Info("payment push initiated",
		"reference", ref.String(), "correlation_id", correlationID, "amount_cents", amount)

	view := newAttemptView(attempt, ref.String())
	return &view, nil
}

func (p *paymentUseCaseImpl) CheckStatus(ctx context.Context, correlationID string, requesterID uuid.UUID) (*PaymentStatusView, error) {
	attempt, err := p.attempts.FindByCorrelationID(ctx, nil, correlationID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.ErrAttemptNotFound
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	b, err := p.bookings.FindByID(ctx, nil, attempt.BookingID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if b.RequesterID() != requesterID {
		return nil, errs.ErrAttemptNotFound
	}

	if attempt.Status().IsFinal() {
		return p.statusView(ctx, attempt)
	}

	result, err := p.pollGateway(ctx, correlationID)
	if err != nil {
		if errors.Is(err, errStillPending) {
			// Budget exhausted without a verdict; the attempt stays pending
			// and the TTL sweep reclaims the hold if nothing ever lands.
			return p.statusView(ctx, attempt)
		}
		return nil, errs.Mark(err, errs.ErrGatewayUnavailable)
	}

	if err := p.finalize(ctx, correlationID, result); err != nil {
		return nil, err
	}

	attempt, err = p.attempts.FindByCorrelationID(ctx, nil, correlationID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return p.statusView(ctx, attempt)
}

func (p *paymentUseCaseImpl) HandleCallback(ctx context.Context, env daraja.CallbackEnvelope) error {
	cb := env.Body.StkCallback

	var result daraja.QueryResult
	switch cb.ResultCode {
	case 0:
		result = daraja.QueryResult{Outcome: daraja.OutcomeCompleted, Receipt: env.Receipt(), ResultDesc: cb.ResultDesc}
	case 1032:
		result = daraja.QueryResult{Outcome: daraja.OutcomeCancelled, ResultDesc: cb.ResultDesc}
	default:
		result = daraja.QueryResult{Outcome: daraja.OutcomeFailed, ResultDesc: cb.ResultDesc}
	}

	err := p.finalize(ctx, cb.CheckoutRequestID, result)
	if err != nil && errors.Is(err, errs.ErrAttemptNotFound) {
		// Unknown correlation id; log and swallow so the gateway is acked
		// and stops retrying.
		slog.Warn("callback for unknown payment attempt",
			"correlation_id", cb.CheckoutRequestID, "result_code", cb.ResultCode)
		return nil
	}
	return err
}

func (p *paymentUseCaseImpl) ReconcilePending(ctx context.Context) (int, error) {
	cutoff := p.clock.Now().Add(-p.cfg.PollInterval)
	pending, err := p.attempts.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	finalized := 0
	for _, attempt := range pending {
		result, err := p.gateway.QueryStatus(ctx, attempt.CorrelationID())
		if err != nil {
			slog.Warn("reconciliation query failed",
				"correlation_id", attempt.CorrelationID(), "error", err)
			continue
		}
		if result.Outcome == daraja.OutcomePending {
			continue
		}
		if err := p.finalize(ctx, attempt.CorrelationID(), result); err != nil {
			slog.Warn("reconciliation finalize failed",
				"correlation_id", attempt.CorrelationID(), "error", err)
			continue
		}
		finalized++
	}
	if finalized > 0 {
		slog.Info("reconciled pending payment attempts", "count", finalized)
	}
	return finalized, nil
}

// pollGateway queries at a fixed interval until the gateway returns a final
// outcome, the polling budget elapses, or the context is cancelled.
func (p *paymentUseCaseImpl) pollGateway(ctx context.Context, correlationID string) (daraja.QueryResult, error) {
	var result daraja.QueryResult

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.cfg.PollInterval
	policy.MaxInterval = p.cfg.PollInterval
	policy.RandomizationFactor = 0
	policy.Multiplier = 1
	policy.MaxElapsedTime = p.cfg.PollMaxElapsed

	err := backoff.Retry(func() error {
		r, err := p.gateway.QueryStatus(ctx, correlationID)
		if err != nil {
			return err
		}
		if r.Outcome == daraja.OutcomePending {
			return errStillPending
		}
		result = r
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		return daraja.QueryResult{}, err
	}
	return result, nil
}

// finalize applies a final gateway outcome to the attempt and, on success,
// confirms the booking in the same transaction. Replays of an outcome
// already recorded are no-ops.
func (p *paymentUseCaseImpl) finalize(ctx context.Context, correlationID string, result daraja.QueryResult) error {
	return p.txRunner.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		attempt, err := p.attempts.FindByCorrelationIDForUpdate(ctx, tx, correlationID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return errs.ErrAttemptNotFound
			}
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		now := p.clock.Now()
		switch result.Outcome {
		case daraja.OutcomeCompleted:
			if _, err := p.finalizer.ConfirmByReceipt(ctx, tx, attempt.BookingID(), result.Receipt); err != nil {
				return err
			}
			if err := attempt.Complete(result.Receipt, now); err != nil {
				return errs.Mark(err, errs.ErrAlreadyFinalized)
			}
		case daraja.OutcomeCancelled:
			if err := attempt.CancelByPayer(now); err != nil {
				return errs.Mark(err, errs.ErrAlreadyFinalized)
			}
		case daraja.OutcomeFailed:
			if err := attempt.Fail(now); err != nil {
				return errs.Mark(err, errs.ErrAlreadyFinalized)
			}
		default:
			return errs.Newf("unexpected gateway outcome %q", result.Outcome)
		}

		if err := p.attempts.Finalize(ctx, tx, attempt); err != nil {
			return errs.Mark(err, errs.ErrDatabaseOperationFailed)
		}

		slog.Info("payment attempt finalized",
			"correlation_id", correlationID,
			"outcome", string(result.Outcome),
			"desc", result.ResultDesc)
		return nil
	})
}

func (p *paymentUseCaseImpl) statusView(ctx context.Context, attempt *payment.Attempt) (*PaymentStatusView, error) {
	b, err := p.bookings.FindByID(ctx, nil, attempt.BookingID())
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return &PaymentStatusView{
		Attempt: newAttemptView(attempt, b.Reference().String()),
		Booking: newBookingView(b),
	}, nil
}

func newAttemptView(a *payment.Attempt, bookingRef string) AttemptView {
	return AttemptView{
		CorrelationID: a.CorrelationID(),
		BookingRef:    bookingRef,
		AmountCents:   a.AmountCents(),
		Status:        a.Status().String(),
		Receipt:       a.Receipt(),
		CreatedAt:     a.CreatedAt(),
	}
}
