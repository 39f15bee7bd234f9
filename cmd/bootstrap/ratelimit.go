package bootstrap

import (
	"nyumbani/internal/handler"
	infraratelimit "nyumbani/internal/infra/ratelimit"
	"nyumbani/internal/pkg/clock"
	"nyumbani/internal/pkg/config"
	"nyumbani/internal/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var RateLimitModule = fx.Module("ratelimit",
	fx.Provide(
		NewLimiters,
	),
)

// NewLimiters builds the per-surface limiters on the configured backend.
// Memory is the default; redis makes the counters shared across instances.
func NewLimiters(cfg config.RateLimitConfig, client *redis.Client, clk clock.Clock) handler.Limiters {
	newStore := func(prefix string) ratelimit.CounterStore {
		if cfg.Backend == "redis" {
			return infraratelimit.NewRedisStore(client, "ratelimit:"+prefix)
		}
		return ratelimit.NewMemoryStore(clk)
	}

	return handler.Limiters{
		Auth:     ratelimit.NewLimiter(newStore("auth"), cfg.AuthMax, cfg.AuthWindow),
		Payments: ratelimit.NewLimiter(newStore("payments"), cfg.PaymentsMax, cfg.PaymentsWindow),
	}
}
