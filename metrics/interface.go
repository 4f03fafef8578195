package metrics

// MetricsCollector creates labeled metric vectors on the application
// registry. It is implemented by *Metrics.
//
// Creating a vector whose name, help and labels match an existing one
// returns the existing vector, so several components may share a name.
// A conflicting definition panics.
type MetricsCollector interface {
	CreateCounter(name, help string, labels []string) Counter
	CreateGauge(name, help string, labels []string) Gauge
	CreateSummary(name, help string, labels []string, objectives map[float64]float64) Summary
}
