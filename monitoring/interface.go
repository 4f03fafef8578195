package monitoring

import (
	"context"
	"time"
)

// RateCounter counts occurrences. Backends derive the per-second rate from
// the cumulative count.
type RateCounter interface {
	Increment()
}

// RawCounter is a gauge that moves up and down.
type RawCounter interface {
	Increment()
	Decrement()
}

// AverageCounter samples durations and reports their running average.
type AverageCounter interface {
	Sample(d time.Duration)
}

// CounterRegistry hands out counters identified by (category, counter name,
// instance name). Asking twice for the same triple returns counters that
// update the same value.
//
// Implementations must be safe for concurrent use and must not block:
// counters are updated on the execution path.
type CounterRegistry interface {
	RateOfCountsPerSecondCounter(category, name, instance string) RateCounter
	RawValueCounter(category, name, instance string) RawCounter
	AverageValueCounter(category, name, instance string) AverageCounter
}

// Logger is an interface that matches the logger.Logger context-aware methods.
type Logger interface {
	// WarnWithContext logs a warning message with trace context.
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})

	// ErrorWithContext logs an error message with trace context.
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
