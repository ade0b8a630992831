package vafile

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
)

// SearchResult represents a single search result.
type SearchResult struct {
	// ID is the identifier of the matching dataset object.
	ID uint32

	// Distance is the exact distance between the query and the object.
	Distance float64
}

// KNNSearcher finds the k nearest neighbors of a query vector.
type KNNSearcher interface {
	// KNNSearch returns the k nearest objects, ascending by distance.
	KNNSearch(ctx context.Context, query []float32, k int, opts *SearchOptions) ([]SearchResult, error)
}

// RangeSearcher finds all objects within a radius of a query vector.
type RangeSearcher interface {
	// RangeSearch returns all objects with distance <= radius, unordered.
	RangeSearch(ctx context.Context, query []float32, radius float64, opts *SearchOptions) ([]SearchResult, error)
}

// VAFile is a vector-approximation file index over a static dataset snapshot.
//
// Construct with New, then call Build exactly once. After Build the grid and
// the approximation list are immutable and queries may run concurrently;
// the scan and refinement statistics are updated atomically.
type VAFile struct {
	opts   options
	data   dataset.Dataset
	metric distance.Metric
	p      float64

	// Quantile grid: grid[d] holds partitions+1 non-decreasing borders.
	grid [][]float64

	// Ordered approximation list, one entry per dataset object.
	approx []Approximation

	building atomic.Bool
	built    atomic.Bool

	scans       atomic.Int64
	queries     atomic.Int64
	refinements atomic.Int64
}

var _ KNNSearcher = (*VAFile)(nil)
var _ RangeSearcher = (*VAFile)(nil)

// New creates a VA-file index over the given dataset.
//
// The metric must expose a Minkowski exponent (see distance.AsMinkowski);
// otherwise ErrUnsupportedMetric is returned and the caller should use the
// linearscan fallback searcher. Configuration errors (partition count not a
// power of two > 1, non-positive page size, empty dataset) are fatal.
func New(data dataset.Dataset, metric distance.Metric, optFns ...Option) (*VAFile, error) {
	opts := applyOptions(optFns)

	if data == nil || data.Size() == 0 {
		return nil, ErrEmptyDataset
	}
	if data.Dimensionality() <= 0 {
		return nil, fmt.Errorf("invalid dimensionality: %d", data.Dimensionality())
	}
	if opts.partitions < 2 || opts.partitions&(opts.partitions-1) != 0 {
		return nil, &ErrInvalidPartitions{Partitions: opts.partitions}
	}
	if opts.pageSize <= 0 {
		return nil, &ErrInvalidPageSize{PageSize: opts.pageSize}
	}

	p, ok := distance.AsMinkowski(metric)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMetric, metric.Name())
	}

	return &VAFile{
		opts:   opts,
		data:   data,
		metric: metric,
		p:      p,
	}, nil
}

// Build computes the quantile grid and the approximation of every dataset
// object. It must complete exactly once before any query; a second call
// returns ErrAlreadyBuilt.
func (va *VAFile) Build(ctx context.Context) error {
	if !va.building.CompareAndSwap(false, true) {
		return ErrAlreadyBuilt
	}

	grid, err := buildGrid(ctx, va.data, va.opts.partitions)
	if err != nil {
		va.opts.logger.LogBuild(va.data.Size(), va.data.Dimensionality(), va.opts.partitions, err)
		return err
	}
	va.grid = grid

	va.approx = make([]Approximation, 0, va.data.Size())
	for id, v := range va.data.All() {
		va.approx = append(va.approx, va.approximate(id, v))
	}

	va.built.Store(true)
	va.opts.logger.LogBuild(va.data.Size(), va.data.Dimensionality(), va.opts.partitions, nil)
	return nil
}

// Partitions returns the configured partition count per dimension.
func (va *VAFile) Partitions() int { return va.opts.partitions }

// ScannedPages estimates how many simulated storage pages have been read so
// far: the page count of the approximation table multiplied by the number of
// full scans performed. Reporting only; no effect on query results.
func (va *VAFile) ScannedPages() int64 {
	if !va.built.Load() {
		return 0
	}
	perPage := va.opts.pageSize / approximationBytes(va.data.Dimensionality(), va.opts.partitions)
	if perPage < 1 {
		perPage = 1
	}
	pages := int64(math.Ceil(float64(len(va.approx)) / float64(perPage)))
	return pages * va.scans.Load()
}

// MeanRefinements returns the mean number of exact distance computations per
// query, or 0 before the first query.
func (va *VAFile) MeanRefinements() float64 {
	queries := va.queries.Load()
	if queries == 0 {
		return 0
	}
	return float64(va.refinements.Load()) / float64(queries)
}

// Stats is a read-only snapshot of the index statistics.
type Stats struct {
	Size            int
	Dimensionality  int
	Partitions      int
	Scans           int64
	ScannedPages    int64
	MeanRefinements float64
}

// Stats returns a snapshot of the index statistics.
func (va *VAFile) Stats() Stats {
	return Stats{
		Size:            va.data.Size(),
		Dimensionality:  va.data.Dimensionality(),
		Partitions:      va.opts.partitions,
		Scans:           va.scans.Load(),
		ScannedPages:    va.ScannedPages(),
		MeanRefinements: va.MeanRefinements(),
	}
}

// checkQuery validates the shared query preconditions.
func (va *VAFile) checkQuery(ctx context.Context, query []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !va.built.Load() {
		return ErrNotBuilt
	}
	if len(query) != va.data.Dimensionality() {
		return &ErrDimensionMismatch{Expected: va.data.Dimensionality(), Actual: len(query)}
	}
	return nil
}
