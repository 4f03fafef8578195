package monitoring

import (
	"time"

	"github.com/aalemi-dev/sqlguard/metrics"
)

// Metric names registered by PrometheusCounterRegistry.
const (
	RateMetricName    = "sqlguard_rate_counts_total"
	RawMetricName     = "sqlguard_raw_value"
	AverageMetricName = "sqlguard_average_value_seconds"
)

var counterLabels = []string{"category", "counter", "instance"}

// PrometheusCounterRegistry reports counters as three labeled Prometheus
// vectors on the application metrics registry: a counter for rates, a gauge
// for raw values and a summary for averages.
//
// Only one PrometheusCounterRegistry may be created per metrics.MetricsCollector.
type PrometheusCounterRegistry struct {
	rates    metrics.Counter
	raws     metrics.Gauge
	averages metrics.Summary
}

// NewPrometheusCounterRegistry registers the sqlguard vectors with collector.
func NewPrometheusCounterRegistry(collector metrics.MetricsCollector) *PrometheusCounterRegistry {
	return &PrometheusCounterRegistry{
		rates: collector.CreateCounter(RateMetricName,
			"Cumulative count of database executions per category, counter and instance.",
			counterLabels),
		raws: collector.CreateGauge(RawMetricName,
			"Current value of raw database counters, such as requests outstanding.",
			counterLabels),
		averages: collector.CreateSummary(AverageMetricName,
			"Database execution response time in seconds.",
			counterLabels,
			map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001}),
	}
}

type promRate struct{ c metrics.Counter }

func (p promRate) Increment() { p.c.Inc() }

type promRaw struct{ g metrics.Gauge }

func (p promRaw) Increment() { p.g.Inc() }
func (p promRaw) Decrement() { p.g.Dec() }

type promAverage struct{ o metrics.Observer }

func (p promAverage) Sample(d time.Duration) { p.o.Observe(d.Seconds()) }

// RateOfCountsPerSecondCounter implements CounterRegistry.
func (r *PrometheusCounterRegistry) RateOfCountsPerSecondCounter(category, name, instance string) RateCounter {
	return promRate{c: r.rates.WithLabelValues(category, name, instance)}
}

// RawValueCounter implements CounterRegistry.
func (r *PrometheusCounterRegistry) RawValueCounter(category, name, instance string) RawCounter {
	return promRaw{g: r.raws.WithLabelValues(category, name, instance)}
}

// AverageValueCounter implements CounterRegistry.
func (r *PrometheusCounterRegistry) AverageValueCounter(category, name, instance string) AverageCounter {
	return promAverage{o: r.averages.WithLabelValues(category, name, instance)}
}

// MultiCounterRegistry fans every counter out to several registries.
type MultiCounterRegistry []CounterRegistry

type multiRate []RateCounter

func (m multiRate) Increment() {
	for _, c := range m {
		c.Increment()
	}
}

type multiRaw []RawCounter

func (m multiRaw) Increment() {
	for _, c := range m {
		c.Increment()
	}
}

func (m multiRaw) Decrement() {
	for _, c := range m {
		c.Decrement()
	}
}

type multiAverage []AverageCounter

func (m multiAverage) Sample(d time.Duration) {
	for _, c := range m {
		c.Sample(d)
	}
}

// RateOfCountsPerSecondCounter implements CounterRegistry.
func (m MultiCounterRegistry) RateOfCountsPerSecondCounter(category, name, instance string) RateCounter {
	out := make(multiRate, 0, len(m))
	for _, r := range m {
		out = append(out, r.RateOfCountsPerSecondCounter(category, name, instance))
	}
	return out
}

// RawValueCounter implements CounterRegistry.
func (m MultiCounterRegistry) RawValueCounter(category, name, instance string) RawCounter {
	out := make(multiRaw, 0, len(m))
	for _, r := range m {
		out = append(out, r.RawValueCounter(category, name, instance))
	}
	return out
}

// AverageValueCounter implements CounterRegistry.
func (m MultiCounterRegistry) AverageValueCounter(category, name, instance string) AverageCounter {
	out := make(multiAverage, 0, len(m))
	for _, r := range m {
		out = append(out, r.AverageValueCounter(category, name, instance))
	}
	return out
}
