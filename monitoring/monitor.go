package monitoring

import (
	"sync"
	"unicode/utf8"
)

const (
	// CategoryPrefix prefixes the backend name to form the counter category.
	CategoryPrefix = "sqlguard."

	// TotalInstance is the instance name of the aggregate counter set.
	TotalInstance = "_Total"

	// MaxInstanceNameLength bounds operation names used as instance names.
	MaxInstanceNameLength = 127
)

// Counter names within a category.
const (
	RequestsPerSecond   = "Requests/s"
	FailuresPerSecond   = "Failures/s"
	RequestsOutstanding = "Requests Outstanding"
	AverageResponseTime = "Avg Response Time"
)

// CounterSet is the group of counters kept for one instance.
type CounterSet struct {
	RequestsPerSecond   RateCounter
	FailuresPerSecond   RateCounter
	RequestsOutstanding RawCounter
	AverageResponseTime AverageCounter
}

func newCounterSet(registry CounterRegistry, category, instance string) *CounterSet {
	return &CounterSet{
		RequestsPerSecond:   registry.RateOfCountsPerSecondCounter(category, RequestsPerSecond, instance),
		FailuresPerSecond:   registry.RateOfCountsPerSecondCounter(category, FailuresPerSecond, instance),
		RequestsOutstanding: registry.RawValueCounter(category, RequestsOutstanding, instance),
		AverageResponseTime: registry.AverageValueCounter(category, AverageResponseTime, instance),
	}
}

// Monitor holds the counters of one backend: a total set plus one set per
// operation name, created the first time the name is seen and never evicted.
type Monitor struct {
	category   string
	registry   CounterRegistry
	total      *CounterSet
	operations sync.Map // truncated name -> *CounterSet
}

// NewMonitor creates the monitor for backend, reporting into registry.
func NewMonitor(backend string, registry CounterRegistry) *Monitor {
	category := CategoryPrefix + backend
	return &Monitor{
		category: category,
		registry: registry,
		total:    newCounterSet(registry, category, TotalInstance),
	}
}

// Category returns the counter category, "sqlguard.<backend>".
func (m *Monitor) Category() string {
	return m.category
}

// Total returns the aggregate counter set.
func (m *Monitor) Total() *CounterSet {
	return m.total
}

// Operation returns the counter set for an operation name. Names longer than
// MaxInstanceNameLength are truncated first, so two long names sharing that
// prefix share one set.
func (m *Monitor) Operation(name string) *CounterSet {
	instance := TruncateInstanceName(name)
	if set, ok := m.operations.Load(instance); ok {
		return set.(*CounterSet)
	}
	set, _ := m.operations.LoadOrStore(instance, newCounterSet(m.registry, m.category, instance))
	return set.(*CounterSet)
}

// TruncateInstanceName cuts name to MaxInstanceNameLength characters.
func TruncateInstanceName(name string) string {
	if utf8.RuneCountInString(name) <= MaxInstanceNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:MaxInstanceNameLength])
}
