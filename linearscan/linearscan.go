// Package linearscan provides an exhaustive fallback searcher for metrics
// the VA-file index cannot compute distance bounds for.
//
// Results are always correct but nothing is pruned: every object is refined.
// Range results are unordered; KNN results are returned ascending by distance
// like the index's.
package linearscan

import (
	"context"
	"fmt"

	"github.com/mikiec84/vafile"
	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
	"github.com/mikiec84/vafile/internal/queue"
)

// Searcher scans the whole dataset for every query. It accepts any metric.
type Searcher struct {
	data   dataset.Dataset
	metric distance.Metric
}

var _ vafile.KNNSearcher = (*Searcher)(nil)
var _ vafile.RangeSearcher = (*Searcher)(nil)

// New creates a linear-scan searcher over the given dataset and metric.
func New(data dataset.Dataset, metric distance.Metric) *Searcher {
	return &Searcher{data: data, metric: metric}
}

// KNNSearch returns the k nearest objects, ascending by distance.
func (s *Searcher) KNNSearch(ctx context.Context, query []float32, k int, opts *vafile.SearchOptions) ([]vafile.SearchResult, error) {
	if err := s.checkQuery(ctx, query); err != nil {
		return nil, err
	}
	if k < 1 || k > s.data.Size() {
		return nil, fmt.Errorf("%w: k=%d with %d objects", vafile.ErrInvalidK, k, s.data.Size())
	}

	var filter func(id uint32) bool
	if opts != nil {
		filter = opts.Filter
	}

	top := queue.NewMax(k)
	for id, v := range s.data.All() {
		if filter != nil && !filter(id) {
			continue
		}
		top.PushBounded(queue.Item{ID: id, Value: s.metric.Distance(query, v)}, k)
	}

	results := make([]vafile.SearchResult, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		item, _ := top.Pop()
		results[i] = vafile.SearchResult{ID: item.ID, Distance: item.Value}
	}
	return results, nil
}

// RangeSearch returns every object within radius of the query, unordered.
func (s *Searcher) RangeSearch(ctx context.Context, query []float32, radius float64, opts *vafile.SearchOptions) ([]vafile.SearchResult, error) {
	if err := s.checkQuery(ctx, query); err != nil {
		return nil, err
	}
	if radius < 0 {
		return nil, fmt.Errorf("%w: %v", vafile.ErrInvalidRadius, radius)
	}

	var filter func(id uint32) bool
	if opts != nil {
		filter = opts.Filter
	}

	var results []vafile.SearchResult
	for id, v := range s.data.All() {
		if filter != nil && !filter(id) {
			continue
		}
		if dist := s.metric.Distance(query, v); dist <= radius {
			results = append(results, vafile.SearchResult{ID: id, Distance: dist})
		}
	}
	return results, nil
}

func (s *Searcher) checkQuery(ctx context.Context, query []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(query) != s.data.Dimensionality() {
		return &vafile.ErrDimensionMismatch{Expected: s.data.Dimensionality(), Actual: len(query)}
	}
	return nil
}
