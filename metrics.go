package exdcache

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordHeaderLoad is called after each header fetch and decode.
	RecordHeaderLoad(duration time.Duration, err error)

	// RecordSheetLoad is called after each variant load. rows is the number of
	// rows of the loaded table (0 on error).
	RecordSheetLoad(rows int, duration time.Duration, err error)

	// RecordCacheAccess is called for every header lookup.
	RecordCacheAccess(hit bool)

	// RecordEviction is called for every header removed from the cache.
	RecordEviction()
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordHeaderLoad(time.Duration, error)     {}
func (NoopMetricsCollector) RecordSheetLoad(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCacheAccess(bool)                    {}
func (NoopMetricsCollector) RecordEviction()                           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	HeaderLoads      atomic.Int64
	HeaderErrors     atomic.Int64
	HeaderTotalNanos atomic.Int64
	SheetLoads       atomic.Int64
	SheetErrors      atomic.Int64
	SheetRows        atomic.Int64
	SheetTotalNanos  atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
	Evictions        atomic.Int64
}

// RecordHeaderLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordHeaderLoad(duration time.Duration, err error) {
	b.HeaderLoads.Add(1)
	b.HeaderTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.HeaderErrors.Add(1)
	}
}

// RecordSheetLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSheetLoad(rows int, duration time.Duration, err error) {
	b.SheetLoads.Add(1)
	b.SheetTotalNanos.Add(duration.Nanoseconds())
	b.SheetRows.Add(int64(rows))
	if err != nil {
		b.SheetErrors.Add(1)
	}
}

// RecordCacheAccess implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheAccess(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction() {
	b.Evictions.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		HeaderLoads:    b.HeaderLoads.Load(),
		HeaderErrors:   b.HeaderErrors.Load(),
		HeaderAvgNanos: avg(b.HeaderTotalNanos.Load(), b.HeaderLoads.Load()),
		SheetLoads:     b.SheetLoads.Load(),
		SheetErrors:    b.SheetErrors.Load(),
		SheetRows:      b.SheetRows.Load(),
		SheetAvgNanos:  avg(b.SheetTotalNanos.Load(), b.SheetLoads.Load()),
		CacheHits:      b.CacheHits.Load(),
		CacheMisses:    b.CacheMisses.Load(),
		Evictions:      b.Evictions.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	HeaderLoads    int64
	HeaderErrors   int64
	HeaderAvgNanos int64
	SheetLoads     int64
	SheetErrors    int64
	SheetRows      int64
	SheetAvgNanos  int64
	CacheHits      int64
	CacheMisses    int64
	Evictions      int64
}

// HitRate returns the fraction of header lookups served from the cache.
func (s BasicMetricsStats) HitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}
