package worker

import (
	"context"
	"log/slog"
	"time"

	"nyumbani/internal/pkg/config"
	"nyumbani/internal/usecase"

	"github.com/go-co-op/gocron/v2"
)

// Sweeper runs the periodic maintenance jobs: reclaiming stale provisional
// holds and reconciling payment attempts whose clients stopped polling.
type Sweeper struct {
	scheduler    gocron.Scheduler
	reservations usecase.ReservationUseCase
	payments     usecase.PaymentUseCase
	interval     time.Duration
}

func NewSweeper(
	reservations usecase.ReservationUseCase,
	payments usecase.PaymentUseCase,
	cfg config.BookingConfig,
) (*Sweeper, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Sweeper{
		scheduler:    scheduler,
		reservations: reservations,
		payments:     payments,
		interval:     cfg.SweepInterval,
	}, nil
}

func (s *Sweeper) Start(ctx context.Context) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.sweepProvisionals(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	_, err = s.scheduler.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.reconcilePayments(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	s.scheduler.Start()
	slog.Info("sweeper started", "interval", s.interval.String())
	return nil
}

func (s *Sweeper) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Sweeper) sweepProvisionals(ctx context.Context) {
	if _, err := s.reservations.ExpireStaleProvisionals(ctx); err != nil {
		slog.Error("provisional sweep failed", "error", err)
	}
}

func (s *Sweeper) reconcilePayments(ctx context.Context) {
	if _, err := s.payments.ReconcilePending(ctx); err != nil {
		slog.Error("payment reconciliation failed", "error", err)
	}
}
