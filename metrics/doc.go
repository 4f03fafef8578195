// Package metrics exposes Prometheus metrics on two HTTP endpoints.
//
// The system endpoint (default :9090) serves Go runtime, process and build
// collectors. The application endpoint (default :9091) serves every vector
// created through MetricsCollector; the monitoring package registers the
// sqlguard database counters there. Each metric carries a "service" label.
//
// Setting an address to "" disables that endpoint. Application metrics are
// still collected and can be gathered from Metrics.ApplicationRegistry,
// which is how tests read them.
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "accounts"})
//	requests := m.CreateCounter("accounts_requests_total", "Requests served.", []string{"route"})
//	requests.WithLabelValues("/users").Inc()
//
// FXModule provides *Metrics and MetricsCollector and starts the servers
// with the application.
package metrics
