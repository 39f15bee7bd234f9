package components

import (
	"nyumbani/internal/pkg/clock"
	"nyumbani/internal/usecase"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.NewRealClock,
		usecase.NewReservationUseCase,
		usecase.NewReservationFinalizer,
		usecase.NewPaymentUseCase,
		usecase.NewAuthUseCase,
	),
)
