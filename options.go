package vafile

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
)

type options struct {
	partitions       int
	pageSize         int
	logger           *Logger
	metricsCollector MetricsCollector
}

// Option configures index construction.
type Option func(*options)

// WithPartitions sets the number of grid partitions per dimension.
// Must be a power of two greater than one. Default: 8.
func WithPartitions(partitions int) Option {
	return func(o *options) {
		o.partitions = partitions
	}
}

// WithPageSize sets the simulated page size in bytes used by the page cost
// model. It has no effect on query results. Default: 1024.
func WithPageSize(pageSize int) Option {
	return func(o *options) {
		o.pageSize = pageSize
	}
}

// WithLogger configures structured logging for build and query operations.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring queries.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		partitions:       8,
		pageSize:         1024,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// SearchOptions tunes a single query. A nil *SearchOptions uses defaults.
type SearchOptions struct {
	// Filter restricts the search to identifiers for which it returns true.
	// A nil filter admits every identifier.
	Filter func(id uint32) bool
}

// FilterFromBitmap adapts a roaring bitmap allow-list into a search filter.
func FilterFromBitmap(bm *roaring.Bitmap) func(id uint32) bool {
	return func(id uint32) bool {
		return bm.Contains(id)
	}
}

// ResultBitmap collects the identifiers of results into a roaring bitmap,
// for callers that intersect or chain result sets.
func ResultBitmap(results []SearchResult) *roaring.Bitmap {
	bm := roaring.New()
	for _, r := range results {
		bm.Add(r.ID)
	}
	return bm
}
