package vafile

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/mikiec84/vafile/internal/queue"
)

// RangeSearch returns every object within radius of the query, unordered.
//
// Filter phase: entries whose lower distance bound exceeds the radius are
// discarded without touching the actual vector. Refine phase: survivors are
// checked against the exact distance.
func (va *VAFile) RangeSearch(ctx context.Context, query []float32, radius float64, opts *SearchOptions) ([]SearchResult, error) {
	start := time.Now()
	results, refined, err := va.rangeSearch(ctx, query, radius, opts)
	va.opts.metricsCollector.RecordRangeSearch(refined, len(results), time.Since(start), err)
	va.opts.logger.LogSearch("range", refined, len(results), err)
	return results, err
}

func (va *VAFile) rangeSearch(ctx context.Context, query []float32, radius float64, opts *SearchOptions) ([]SearchResult, int, error) {
	if err := va.checkQuery(ctx, query); err != nil {
		return nil, 0, err
	}
	if radius < 0 {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidRadius, radius)
	}

	var filter func(id uint32) bool
	if opts != nil {
		filter = opts.Filter
	}

	queryCells := va.approximateQuery(query)
	bounds := newLPBounds(va.p, va.grid, query, queryCells)

	va.scans.Add(1)

	var results []SearchResult
	refined := 0
	for i := range va.approx {
		a := &va.approx[i]
		if filter != nil && !filter(a.ID) {
			continue
		}
		if bounds.Lower(a.Cells) > radius {
			continue
		}

		vec, ok := va.data.Vector(a.ID)
		if !ok {
			continue
		}
		dist := va.metric.Distance(query, vec)
		refined++
		if dist <= radius {
			results = append(results, SearchResult{ID: a.ID, Distance: dist})
		}
	}

	va.queries.Add(1)
	va.refinements.Add(int64(refined))
	return results, refined, nil
}

// KNNSearch returns the k nearest objects, ascending by exact distance.
// Results are identical to a brute-force scan.
//
// Filter phase: a bounded max-heap over upper bounds tracks the k-th smallest
// upper bound seen so far (minMaxDist); entries whose lower bound exceeds it
// cannot be among the k nearest and are skipped. Refine phase: candidates are
// visited in ascending lower-bound order and refined into a k-bounded result
// heap, stopping once the next lower bound exceeds the current k-th distance.
func (va *VAFile) KNNSearch(ctx context.Context, query []float32, k int, opts *SearchOptions) ([]SearchResult, error) {
	start := time.Now()
	results, refined, candidates, err := va.knnSearch(ctx, query, k, opts)
	va.opts.metricsCollector.RecordKNNSearch(k, refined, candidates, time.Since(start), err)
	va.opts.logger.LogSearch("knn", candidates, len(results), err)
	return results, err
}

func (va *VAFile) knnSearch(ctx context.Context, query []float32, k int, opts *SearchOptions) ([]SearchResult, int, int, error) {
	if err := va.checkQuery(ctx, query); err != nil {
		return nil, 0, 0, err
	}
	if k < 1 || k > va.data.Size() {
		return nil, 0, 0, fmt.Errorf("%w: k=%d with %d objects", ErrInvalidK, k, va.data.Size())
	}

	var filter func(id uint32) bool
	if opts != nil {
		filter = opts.Filter
	}

	queryCells := va.approximateQuery(query)
	bounds := newLPBounds(va.p, va.grid, query, queryCells)

	va.scans.Add(1)

	// Heap over upper bounds: its top is the k-th smallest upper bound.
	minMaxHeap := queue.NewMax(k + 1)
	minMaxDist := math.Inf(1)

	candidates := make([]queue.Item, 0, len(va.approx))
	for i := range va.approx {
		a := &va.approx[i]
		if filter != nil && !filter(a.ID) {
			continue
		}
		lower, upper := bounds.Bounds(a.Cells)
		if lower > minMaxDist {
			continue
		}
		candidates = append(candidates, queue.Item{ID: a.ID, Value: lower})

		minMaxHeap.PushBounded(queue.Item{Value: upper}, k)
		if minMaxHeap.Len() >= k {
			top, _ := minMaxHeap.Top()
			minMaxDist = top.Value
		}
	}

	slices.SortStableFunc(candidates, func(a, b queue.Item) int {
		return cmp.Compare(a.Value, b.Value)
	})

	result := queue.NewMax(k)
	refined := 0
	for _, c := range candidates {
		// Stop when no remaining candidate can beat the current k-th result.
		if result.Len() >= k {
			kth, _ := result.Top()
			if c.Value > kth.Value {
				break
			}
		}

		vec, ok := va.data.Vector(c.ID)
		if !ok {
			continue
		}
		dist := va.metric.Distance(query, vec)
		refined++
		result.PushBounded(queue.Item{ID: c.ID, Value: dist}, k)
	}

	va.queries.Add(1)
	va.refinements.Add(int64(refined))

	out := make([]SearchResult, result.Len())
	for i := result.Len() - 1; i >= 0; i-- {
		item, _ := result.Pop()
		out[i] = SearchResult{ID: item.ID, Distance: item.Value}
	}
	return out, refined, len(candidates), nil
}
