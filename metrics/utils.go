package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// CreateCounter implements MetricsCollector.
func (m *Metrics) CreateCounter(name, help string, labels []string) Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	return &counterVec{vec: register(m.application, vec)}
}

// CreateGauge implements MetricsCollector.
func (m *Metrics) CreateGauge(name, help string, labels []string) Gauge {
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	return &gaugeVec{vec: register(m.application, vec)}
}

// CreateSummary implements MetricsCollector.
func (m *Metrics) CreateSummary(name, help string, labels []string, objectives map[float64]float64) Summary {
	vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{Name: name, Help: help, Objectives: objectives}, labels)
	return &summaryVec{vec: register(m.application, vec)}
}

// register adds c to r, or returns the identical collector already there.
func register[C prometheus.Collector](r prometheus.Registerer, c C) C {
	err := r.Register(c)
	if err == nil {
		return c
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}
