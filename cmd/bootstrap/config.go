package bootstrap

import (
	"nyumbani/internal/pkg/config"

	"go.uber.org/fx"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		// Sub-configs, so components depend only on the slice they read.
		func(cfg config.Config) config.BookingConfig { return cfg.Booking },
		func(cfg config.Config) config.GatewayConfig { return cfg.Gateway },
		func(cfg config.Config) config.RateLimitConfig { return cfg.RateLimit },
	),
)
