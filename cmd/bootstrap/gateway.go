package bootstrap

import (
	"nyumbani/internal/infra/gateway/daraja"
	"nyumbani/internal/usecase"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		fx.Annotate(
			daraja.NewClient,
			fx.As(new(usecase.Gateway)),
		),
	),
)
