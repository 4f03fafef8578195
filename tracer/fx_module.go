package tracer

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aalemi-dev/sqlguard/logger"
)

// FXModule provides *TracerClient and Tracer from a Config and flushes the
// provider when the application stops.
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClient,
		fx.Annotate(
			func(t *TracerClient) Tracer { return t },
			fx.As(new(Tracer)),
		),
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerLifecycleParams groups the dependencies of RegisterTracerLifecycle.
type TracerLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Tracer    *TracerClient
	Logger    *logger.LoggerClient `optional:"true"`
}

// RegisterTracerLifecycle shuts the tracer down on application stop.
func RegisterTracerLifecycle(params TracerLifecycleParams) {
	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if params.Logger != nil {
				params.Logger.Zap.Info("shutting down tracer", zap.Bool("configured", params.Tracer.tracer != nil))
			}
			return params.Tracer.Shutdown(ctx)
		},
	})
}
