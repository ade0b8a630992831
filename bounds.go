package vafile

import "math"

// lpBounds estimates lower and upper Lp distance bounds between a fixed query
// and any vector assigned to a given grid cell.
//
// It precomputes, per dimension, the p-th power of the distance from the
// query coordinate to every grid border. Each per-cell bound is then an O(1)
// table lookup per dimension.
//
// Soundness contract: for every indexed vector x with approximation a,
// Lower(a.Cells) <= dist(q, x) <= Upper(a.Cells). Query correctness of both
// the range and the KNN filter depends on this.
type lpBounds struct {
	p          float64
	invP       float64
	queryCells []int
	// lookup[d][i] is |q[d] - grid[d][i]|^p.
	lookup [][]float64
}

func newLPBounds(p float64, grid [][]float64, query []float32, queryCells []int) *lpBounds {
	lookup := make([][]float64, len(grid))
	for d, borders := range grid {
		qd := float64(query[d])
		row := make([]float64, len(borders))
		for i, b := range borders {
			row[i] = math.Pow(math.Abs(qd-b), p)
		}
		lookup[d] = row
	}
	return &lpBounds{
		p:          p,
		invP:       1 / p,
		queryCells: queryCells,
		lookup:     lookup,
	}
}

// minContrib is the smallest possible contribution of dimension d to the
// p-th power of the distance, for a point whose coordinate lies in cell.
// Zero when the query shares the cell: a point could sit exactly at q.
func (lb *lpBounds) minContrib(d, cell int) float64 {
	qc := lb.queryCells[d]
	switch {
	case cell == qc:
		return 0
	case cell < qc:
		return lb.lookup[d][cell+1]
	default:
		return lb.lookup[d][cell]
	}
}

// maxContrib is the largest possible contribution of dimension d: the
// distance from q to the farther edge of the cell.
func (lb *lpBounds) maxContrib(d, cell int) float64 {
	qc := lb.queryCells[d]
	switch {
	case cell < qc:
		return lb.lookup[d][cell]
	case cell == qc:
		return math.Max(lb.lookup[d][cell], lb.lookup[d][cell+1])
	default:
		return lb.lookup[d][cell+1]
	}
}

// Lower returns the lower distance bound for the given cell assignment.
func (lb *lpBounds) Lower(cells []int) float64 {
	var sum float64
	for d, cell := range cells {
		sum += lb.minContrib(d, cell)
	}
	return math.Pow(sum, lb.invP)
}

// Bounds returns the lower and upper distance bounds for the given cells.
func (lb *lpBounds) Bounds(cells []int) (lower, upper float64) {
	var lo, hi float64
	for d, cell := range cells {
		lo += lb.minContrib(d, cell)
		hi += lb.maxContrib(d, cell)
	}
	return math.Pow(lo, lb.invP), math.Pow(hi, lb.invP)
}
