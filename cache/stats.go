package cache

import (
	"github.com/rcrowley/go-metrics"
)

// Metric names registered in Config.Metrics registry.
const (
	MetricInsert    = "cache.insert"
	MetricWithdraw  = "cache.withdraw"
	MetricL1Hit     = "cache.hit.l1"
	MetricL2Hit     = "cache.hit.l2"
	MetricMiss      = "cache.miss"
	MetricEvict     = "cache.evict"
	MetricExhausted = "cache.exhausted"
	MetricEntries   = "cache.entries"
	MetricPromoted  = "cache.promoted"
)

// counters are safe for concurrent use, so hit counters are updated with only
// read lock acquired.
type counters struct {
	insert    metrics.Counter
	withdraw  metrics.Counter
	l1Hit     metrics.Counter
	l2Hit     metrics.Counter
	miss      metrics.Counter
	evict     metrics.Counter
	exhausted metrics.Counter
}

func newCounters(r metrics.Registry) counters {
	return counters{
		insert:    metrics.GetOrRegisterCounter(MetricInsert, r),
		withdraw:  metrics.GetOrRegisterCounter(MetricWithdraw, r),
		l1Hit:     metrics.GetOrRegisterCounter(MetricL1Hit, r),
		l2Hit:     metrics.GetOrRegisterCounter(MetricL2Hit, r),
		miss:      metrics.GetOrRegisterCounter(MetricMiss, r),
		evict:     metrics.GetOrRegisterCounter(MetricEvict, r),
		exhausted: metrics.GetOrRegisterCounter(MetricExhausted, r),
	}
}

// registerGauges registers gauges that sample cache state on read.
func (c *Cache) registerGauges(r metrics.Registry) {
	r.GetOrRegister(MetricEntries, metrics.NewFunctionalGauge(func() int64 {
		c.lock.RLock()
		defer c.lock.RUnlock()
		return int64(c.l1.len())
	}))
	r.GetOrRegister(MetricPromoted, metrics.NewFunctionalGauge(func() int64 {
		c.lock.RLock()
		defer c.lock.RUnlock()
		return int64(c.l2.occupied())
	}))
}

// Stats is cache state and counters snapshot.
type Stats struct {
	Entries     int
	Promoted    int
	Inserts     int64
	Withdrawals int64
	L1Hits      int64
	L2Hits      int64
	Misses      int64
	Evictions   int64
	Exhausted   int64
}

func (c *Cache) Stats() Stats {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return Stats{
		Entries:     c.l1.len(),
		Promoted:    c.l2.occupied(),
		Inserts:     c.counters.insert.Count(),
		Withdrawals: c.counters.withdraw.Count(),
		L1Hits:      c.counters.l1Hit.Count(),
		L2Hits:      c.counters.l2Hit.Count(),
		Misses:      c.counters.miss.Count(),
		Evictions:   c.counters.evict.Count(),
		Exhausted:   c.counters.exhausted.Count(),
	}
}
