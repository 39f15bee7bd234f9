package components

import (
	repo_impl "nyumbani/internal/infra/repository"
	"nyumbani/internal/usecase"

	"go.uber.org/fx"
)

var RepositoryModule = fx.Module("repository",
	fx.Provide(
		fx.Annotate(
			repo_impl.NewUnitRepository,
			fx.As(new(usecase.UnitRepository)),
		),
		fx.Annotate(
			repo_impl.NewUserRepository,
			fx.As(new(usecase.UserRepository)),
		),
		fx.Annotate(
			repo_impl.NewBookingRepository,
			fx.As(new(usecase.BookingRepository)),
		),
		fx.Annotate(
			repo_impl.NewPaymentAttemptRepository,
			fx.As(new(usecase.PaymentAttemptRepository)),
		),
		fx.Annotate(
			repo_impl.NewNotificationJobRepository,
			fx.As(new(usecase.NotificationJobs)),
		),
	),
)
