package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// CounterKey identifies a counter.
type CounterKey struct {
	Category string
	Name     string
	Instance string
}

// InMemoryCounterRegistry keeps counters in process memory. It is the
// default registry and the one tests read back from.
type InMemoryCounterRegistry struct {
	rates    sync.Map // CounterKey -> *memoryRate
	raws     sync.Map // CounterKey -> *memoryRaw
	averages sync.Map // CounterKey -> *memoryAverage
}

// NewInMemoryCounterRegistry returns an empty registry.
func NewInMemoryCounterRegistry() *InMemoryCounterRegistry {
	return &InMemoryCounterRegistry{}
}

type memoryRate struct {
	count atomic.Int64
}

func (c *memoryRate) Increment() { c.count.Add(1) }

type memoryRaw struct {
	value atomic.Int64
}

func (c *memoryRaw) Increment() { c.value.Add(1) }
func (c *memoryRaw) Decrement() { c.value.Add(-1) }

type memoryAverage struct {
	samples atomic.Int64
	sum     atomic.Int64 // nanoseconds
}

func (c *memoryAverage) Sample(d time.Duration) {
	c.sum.Add(int64(d))
	c.samples.Add(1)
}

// RateOfCountsPerSecondCounter implements CounterRegistry.
func (r *InMemoryCounterRegistry) RateOfCountsPerSecondCounter(category, name, instance string) RateCounter {
	c, _ := r.rates.LoadOrStore(CounterKey{category, name, instance}, &memoryRate{})
	return c.(*memoryRate)
}

// RawValueCounter implements CounterRegistry.
func (r *InMemoryCounterRegistry) RawValueCounter(category, name, instance string) RawCounter {
	c, _ := r.raws.LoadOrStore(CounterKey{category, name, instance}, &memoryRaw{})
	return c.(*memoryRaw)
}

// AverageValueCounter implements CounterRegistry.
func (r *InMemoryCounterRegistry) AverageValueCounter(category, name, instance string) AverageCounter {
	c, _ := r.averages.LoadOrStore(CounterKey{category, name, instance}, &memoryAverage{})
	return c.(*memoryAverage)
}

// Count returns the cumulative count of a rate counter, 0 if it does not exist.
func (r *InMemoryCounterRegistry) Count(category, name, instance string) int64 {
	if c, ok := r.rates.Load(CounterKey{category, name, instance}); ok {
		return c.(*memoryRate).count.Load()
	}
	return 0
}

// Value returns the current value of a raw counter, 0 if it does not exist.
func (r *InMemoryCounterRegistry) Value(category, name, instance string) int64 {
	if c, ok := r.raws.Load(CounterKey{category, name, instance}); ok {
		return c.(*memoryRaw).value.Load()
	}
	return 0
}

// Average returns the average of the sampled durations and the number of samples.
func (r *InMemoryCounterRegistry) Average(category, name, instance string) (time.Duration, int64) {
	c, ok := r.averages.Load(CounterKey{category, name, instance})
	if !ok {
		return 0, 0
	}
	avg := c.(*memoryAverage)
	samples := avg.samples.Load()
	if samples == 0 {
		return 0, 0
	}
	return time.Duration(avg.sum.Load() / samples), samples
}

// Instances lists the instance names that have counters in category, sorted.
func (r *InMemoryCounterRegistry) Instances(category string) []string {
	seen := make(map[string]struct{})
	collect := func(key, _ any) bool {
		if k := key.(CounterKey); k.Category == category {
			seen[k.Instance] = struct{}{}
		}
		return true
	}
	r.rates.Range(collect)
	r.raws.Range(collect)
	r.averages.Range(collect)

	out := make([]string, 0, len(seen))
	for instance := range seen {
		out = append(out, instance)
	}
	sort.Strings(out)
	return out
}
