package vafile

import (
	"math/bits"
	"sort"
)

// Approximation is the per-dimension cell assignment of a single vector.
// Cell indexes lie in [0, partitions-1]. Immutable once computed.
type Approximation struct {
	ID    uint32
	Cells []int
}

// approximationBytes returns the simulated on-disk size of one approximation:
// log2(partitions) bits per dimension, rounded up to whole bytes, plus four
// bytes for the identifier.
func approximationBytes(dimensions, partitions int) int {
	bitsPerDim := bits.Len(uint(partitions - 1))
	return (dimensions*bitsPerDim+7)/8 + 4
}

// cellOf locates val within the border sequence of one dimension.
// Coordinates below the first border clamp to cell 0; coordinates above the
// last border clamp to the last cell. Clamping is non-fatal: it only loosens
// bounds, never breaks their soundness.
func cellOf(borders []float64, val float64) (cell int, clamped bool) {
	last := len(borders) - 1
	switch {
	case val < borders[0]:
		return 0, true
	case val > borders[last]:
		return last - 1, true
	default:
		pos := sort.SearchFloat64s(borders, val)
		cell := pos
		if pos == len(borders) || borders[pos] != val {
			cell = pos - 1
		}
		if cell > last-1 {
			// Exact hit on the inflated upper border.
			cell = last - 1
		}
		return cell, false
	}
}

// approximate maps an indexed vector onto the quantile grid, warning when a
// coordinate falls outside the grid (possible when the grid was built from a
// different snapshot).
func (va *VAFile) approximate(id uint32, v []float32) Approximation {
	cells := make([]int, len(v))
	for d, borders := range va.grid {
		val := float64(v[d])
		cell, clamped := cellOf(borders, val)
		cells[d] = cell
		if clamped {
			va.opts.logger.LogOutOfGrid(id, d, val)
		}
	}
	return Approximation{ID: id, Cells: cells}
}

// approximateQuery maps a query vector onto the grid. Query points may
// legitimately extrapolate beyond the training data; clamps are still logged
// since they cost extra refinements.
func (va *VAFile) approximateQuery(query []float32) []int {
	cells := make([]int, len(query))
	for d, borders := range va.grid {
		val := float64(query[d])
		cell, clamped := cellOf(borders, val)
		cells[d] = cell
		if clamped {
			va.opts.logger.LogQueryOutOfGrid(d, val)
		}
	}
	return cells
}
