package monitoring

import (
	"go.uber.org/fx"

	"github.com/aalemi-dev/sqlguard/database"
	"github.com/aalemi-dev/sqlguard/logger"
	"github.com/aalemi-dev/sqlguard/metrics"
	"github.com/aalemi-dev/sqlguard/observability"
	"github.com/aalemi-dev/sqlguard/tracer"
)

// FXModule provides the CounterRegistry and the database.ObserverBuilder
// used by every monitored database.
//
// Counters always go to an in-memory registry; when a metrics.MetricsCollector
// is available they are reported to Prometheus as well. A tracer.Tracer adds
// a TracingObserver and an observability.Observer adds an OperationObserver.
var FXModule = fx.Module("monitoring",
	fx.Provide(
		NewCounterRegistryWithDI,
		NewObserverBuilderWithDI,
	),
)

// CounterRegistryParams groups the dependencies of the counter registry.
type CounterRegistryParams struct {
	fx.In

	Metrics metrics.MetricsCollector `optional:"true"`
}

// CounterRegistryResult exposes the registry both concretely and as CounterRegistry.
type CounterRegistryResult struct {
	fx.Out

	Memory   *InMemoryCounterRegistry
	Registry CounterRegistry
}

// NewCounterRegistryWithDI builds the counter registry from the available collectors.
func NewCounterRegistryWithDI(params CounterRegistryParams) CounterRegistryResult {
	memory := NewInMemoryCounterRegistry()
	if params.Metrics == nil {
		return CounterRegistryResult{Memory: memory, Registry: memory}
	}
	return CounterRegistryResult{
		Memory:   memory,
		Registry: MultiCounterRegistry{memory, NewPrometheusCounterRegistry(params.Metrics)},
	}
}

// ObserverBuilderParams groups the dependencies of the observer builder.
type ObserverBuilderParams struct {
	fx.In

	Registry   CounterRegistry
	Tracer     tracer.Tracer          `optional:"true"`
	Operations observability.Observer `optional:"true"`
	Logger     *logger.LoggerClient   `optional:"true"`
}

// NewObserverBuilderWithDI composes the observers for the available dependencies.
func NewObserverBuilderWithDI(params ObserverBuilderParams) database.ObserverBuilder {
	var log Logger
	if params.Logger != nil {
		log = params.Logger
	}

	builders := []database.ObserverBuilder{NewObserverBuilder(params.Registry, log)}
	if params.Tracer != nil {
		t := params.Tracer
		builders = append(builders, func(source database.EventSource) database.Observer {
			return NewTracingObserver(source, t)
		})
	}
	if params.Operations != nil {
		ops := params.Operations
		builders = append(builders, func(source database.EventSource) database.Observer {
			return NewOperationObserver(source, ops)
		})
	}
	return ComposeBuilders(builders...)
}
