// Package projected provides an approximate KNN preprocessor based on
// one-dimensional projections.
//
// Every object is positioned in a set of sorted 1-D projections (random axis
// permutation or random Gaussian projection). A query for an indexed object
// gathers a window of neighbors around the object's position in each
// projection, deduplicates the union and refines it with exact distances.
// Results are approximate: the true neighbors are found only when they land
// inside one of the windows.
package projected

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync/atomic"

	"github.com/mikiec84/vafile"
	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
	"github.com/mikiec84/vafile/internal/queue"
)

// Options configures the preprocessor.
type Options struct {
	// Window is the window size multiplier: each projection contributes
	// ceil(Window*k) neighbors on both sides of the query position.
	Window float64

	// Projections is the number of 1-D projections. Zero means one
	// projection per input dimension.
	Projections int

	// Gaussian selects random Gaussian projections instead of a random
	// axis permutation.
	Gaussian bool

	// Seed seeds the projection randomness.
	Seed int64
}

// DefaultOptions are the default preprocessor options.
var DefaultOptions = Options{
	Window:      10,
	Projections: 0,
	Gaussian:    false,
	Seed:        0,
}

// entry is one object's value in a single projection.
type entry struct {
	id    uint32
	value float64
}

// Preprocessor holds the sorted projections and the per-object positions.
type Preprocessor struct {
	opts   Options
	data   dataset.Dataset
	metric distance.Metric

	projected [][]entry // per projection, sorted ascending by value
	positions [][]int   // positions[id][projection]

	built atomic.Bool

	// Mean refinements per query, for observability.
	queries     atomic.Int64
	refinements atomic.Int64
}

// New creates a projected KNN preprocessor over the dataset.
func New(data dataset.Dataset, metric distance.Metric, optFns ...func(o *Options)) (*Preprocessor, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if data == nil || data.Size() == 0 {
		return nil, vafile.ErrEmptyDataset
	}
	if opts.Window <= 0 {
		return nil, fmt.Errorf("projected: window must be positive, got %v", opts.Window)
	}
	if opts.Projections < 0 || opts.Projections > data.Dimensionality() {
		return nil, fmt.Errorf("projected: invalid projection count %d for dimensionality %d", opts.Projections, data.Dimensionality())
	}
	return &Preprocessor{opts: opts, data: data, metric: metric}, nil
}

// Build computes the sorted projections and position table. Build must run
// exactly once before KNNByID.
func (p *Preprocessor) Build(ctx context.Context) error {
	if !p.built.CompareAndSwap(false, true) {
		return vafile.ErrAlreadyBuilt
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	idim := p.data.Dimensionality()
	odim := p.opts.Projections
	if odim == 0 {
		odim = idim
	}
	size := p.data.Size()
	rng := rand.New(rand.NewSource(p.opts.Seed))

	p.projected = make([][]entry, odim)
	for j := range p.projected {
		p.projected[j] = make([]entry, 0, size)
	}

	if !p.opts.Gaussian {
		perm := rng.Perm(idim)[:odim]
		for id, v := range p.data.All() {
			for j, axis := range perm {
				p.projected[j] = append(p.projected[j], entry{id: id, value: float64(v[axis])})
			}
		}
	} else {
		// Random Gaussian projection matrix, odim x idim.
		proj := make([][]float64, odim)
		for j := range proj {
			row := make([]float64, idim)
			for d := range row {
				row[d] = rng.NormFloat64()
			}
			proj[j] = row
		}
		for id, v := range p.data.All() {
			for j, row := range proj {
				var sum float64
				for d, w := range row {
					sum += w * float64(v[d])
				}
				p.projected[j] = append(p.projected[j], entry{id: id, value: sum})
			}
		}
	}

	for j := range p.projected {
		sort.SliceStable(p.projected[j], func(a, b int) bool {
			return p.projected[j][a].value < p.projected[j][b].value
		})
	}

	p.positions = make([][]int, size)
	for id := range p.positions {
		p.positions[id] = make([]int, odim)
	}
	for j := range p.projected {
		for pos, e := range p.projected[j] {
			p.positions[e.id][j] = pos
		}
	}
	return nil
}

// KNNByID returns the approximate k nearest neighbors of an indexed object,
// ascending by exact distance. The object itself is part of its own result.
func (p *Preprocessor) KNNByID(ctx context.Context, id uint32, k int) ([]vafile.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.built.Load() || p.positions == nil {
		return nil, vafile.ErrNotBuilt
	}
	if k < 1 || k > p.data.Size() {
		return nil, fmt.Errorf("%w: k=%d with %d objects", vafile.ErrInvalidK, k, p.data.Size())
	}
	if int(id) >= p.data.Size() {
		return nil, fmt.Errorf("projected: unknown object %d", id)
	}

	query, _ := p.data.Vector(id)
	wsize := int(math.Ceil(p.opts.Window * float64(k)))

	// Union of window candidates over all projections.
	seen := make(map[uint32]struct{}, 2*wsize*len(p.projected))
	for j, pos := range p.positions[id] {
		list := p.projected[j]
		lo := max(pos-wsize, 0)
		hi := min(pos+wsize, len(list)-1)
		for i := lo; i <= hi; i++ {
			seen[list[i].id] = struct{}{}
		}
	}

	top := queue.NewMax(k)
	refined := 0
	for cand := range seen {
		v, ok := p.data.Vector(cand)
		if !ok {
			continue
		}
		top.PushBounded(queue.Item{ID: cand, Value: p.metric.Distance(query, v)}, k)
		refined++
	}

	p.queries.Add(1)
	p.refinements.Add(int64(refined))

	results := make([]vafile.SearchResult, top.Len())
	for i := top.Len() - 1; i >= 0; i-- {
		item, _ := top.Pop()
		results[i] = vafile.SearchResult{ID: item.ID, Distance: item.Value}
	}
	return results, nil
}

// MeanRefinements returns the mean number of exact distance computations per
// query, or 0 before the first query.
func (p *Preprocessor) MeanRefinements() float64 {
	queries := p.queries.Load()
	if queries == 0 {
		return 0
	}
	return float64(p.refinements.Load()) / float64(queries)
}
