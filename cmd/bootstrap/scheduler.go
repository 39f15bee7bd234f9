package bootstrap

import (
	"context"

	"nyumbani/internal/worker"

	"go.uber.org/fx"
)

var SchedulerModule = fx.Module("scheduler",
	fx.Provide(
		worker.NewSweeper,
	),
	fx.Invoke(StartSweeper),
)

func StartSweeper(lc fx.Lifecycle, sweeper *worker.Sweeper) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return sweeper.Start(context.WithoutCancel(ctx))
		},
		OnStop: func(_ context.Context) error {
			return sweeper.Stop()
		},
	})
}
