package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the system and application registries and the HTTP servers
// exposing them. It implements MetricsCollector on the application registry.
type Metrics struct {
	// SystemServer serves SystemRegistry; nil when the endpoint is disabled.
	SystemServer *http.Server

	// ApplicationServer serves ApplicationRegistry; nil when serving is disabled.
	ApplicationServer *http.Server

	// SystemRegistry holds the Go runtime and process collectors; nil when
	// the system endpoint is disabled.
	SystemRegistry *prometheus.Registry

	// ApplicationRegistry holds every metric created through MetricsCollector.
	// It is never nil.
	ApplicationRegistry *prometheus.Registry

	application prometheus.Registerer
}

// NewMetrics builds the registries and, for each enabled endpoint, an
// unstarted server. RegisterMetricsLifecycle starts and stops the servers.
func NewMetrics(cfg Config) *Metrics {
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	labels := prometheus.Labels{"service": cfg.ServiceName}

	m := &Metrics{ApplicationRegistry: prometheus.NewRegistry()}
	m.application = prometheus.WrapRegistererWith(labels, m.ApplicationRegistry)

	if addr := address(cfg.SystemMetricsAddress, DefaultSystemMetricsAddress); addr != "" {
		m.SystemRegistry = prometheus.NewRegistry()
		prometheus.WrapRegistererWith(labels, m.SystemRegistry).MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
		m.SystemServer = newServer(addr, path, m.SystemRegistry)
	}

	if addr := address(cfg.ApplicationMetricsAddress, DefaultApplicationMetricsAddress); addr != "" {
		m.ApplicationServer = newServer(addr, path, m.ApplicationRegistry)
	}

	return m
}

func newServer(addr, path string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
