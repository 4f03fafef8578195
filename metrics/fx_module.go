package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"go.uber.org/fx"

	"github.com/aalemi-dev/sqlguard/logger"
)

// FXModule provides *Metrics and MetricsCollector from a Config and runs
// the metrics servers for the lifetime of the application.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			func(m *Metrics) MetricsCollector { return m },
			fx.As(new(MetricsCollector)),
		),
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// MetricsLifecycleParams groups the dependencies of RegisterMetricsLifecycle.
type MetricsLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Metrics   *Metrics
	Logger    *logger.LoggerClient `optional:"true"`
}

// RegisterMetricsLifecycle binds the enabled servers on start, so an address
// already in use fails the application start, and shuts them down on stop.
func RegisterMetricsLifecycle(params MetricsLifecycleParams) {
	m, log := params.Metrics, params.Logger
	servers := map[string]*http.Server{
		"system":      m.SystemServer,
		"application": m.ApplicationServer,
	}

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var started []*http.Server
			for kind, srv := range servers {
				if srv == nil {
					continue
				}
				ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", srv.Addr)
				if err != nil {
					for _, s := range started {
						_ = s.Close()
					}
					return fmt.Errorf("failed to listen for %s metrics on %s: %w", kind, srv.Addr, err)
				}
				if log != nil {
					log.Info("metrics server started", nil, map[string]interface{}{
						"endpoint": kind,
						"address":  ln.Addr().String(),
					})
				}
				started = append(started, srv)
				go func(kind string, srv *http.Server) {
					if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) && log != nil {
						log.Error("metrics server failed", err, map[string]interface{}{"endpoint": kind})
					}
				}(kind, srv)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			var errs []error
			for kind, srv := range servers {
				if srv == nil {
					continue
				}
				if err := srv.Shutdown(ctx); err != nil {
					errs = append(errs, fmt.Errorf("%s metrics server: %w", kind, err))
				}
			}
			return errors.Join(errs...)
		},
	})
}
