package vafile

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives per-operation statistics from the index.
// Implement this interface to integrate with monitoring systems.
//
// Collectors are created with the index and discarded with it; the index
// never records into process-wide state.
type MetricsCollector interface {
	// RecordRangeSearch is called after each range search.
	// refined is the number of exact distance computations performed.
	RecordRangeSearch(refined, results int, duration time.Duration, err error)

	// RecordKNNSearch is called after each KNN search.
	RecordKNNSearch(k, refined, candidates int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRangeSearch(int, int, time.Duration, error)    {}
func (NoopMetricsCollector) RecordKNNSearch(int, int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection using
// atomics, safe for concurrent queries.
type BasicMetricsCollector struct {
	RangeSearchCount  atomic.Int64
	RangeSearchErrors atomic.Int64
	KNNSearchCount    atomic.Int64
	KNNSearchErrors   atomic.Int64
	RefinedTotal      atomic.Int64
	CandidatesTotal   atomic.Int64
	SearchTotalNanos  atomic.Int64
}

var _ MetricsCollector = (*BasicMetricsCollector)(nil)

// RecordRangeSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRangeSearch(refined, results int, duration time.Duration, err error) {
	b.RangeSearchCount.Add(1)
	b.RefinedTotal.Add(int64(refined))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.RangeSearchErrors.Add(1)
	}
}

// RecordKNNSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordKNNSearch(k, refined, candidates int, duration time.Duration, err error) {
	b.KNNSearchCount.Add(1)
	b.RefinedTotal.Add(int64(refined))
	b.CandidatesTotal.Add(int64(candidates))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.KNNSearchErrors.Add(1)
	}
}

// MeanRefinements returns the mean number of exact distance computations per
// recorded search, or 0 if nothing was recorded.
func (b *BasicMetricsCollector) MeanRefinements() float64 {
	count := b.RangeSearchCount.Load() + b.KNNSearchCount.Load()
	if count == 0 {
		return 0
	}
	return float64(b.RefinedTotal.Load()) / float64(count)
}
