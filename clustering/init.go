// Package clustering provides Gaussian-mixture EM clustering and k-means
// style initializers over the same dataset accessor and distance metrics the
// index consumes.
package clustering

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
)

// Initializer chooses k initial means for a clustering run.
type Initializer interface {
	ChooseInitialMeans(data dataset.Dataset, k int, metric distance.Metric) ([][]float64, error)
}

// FarthestSumPoints initializes means by repeatedly choosing the object with
// the largest accumulated sum of distances to the previously chosen means.
//
// This is less random than sampling-based initializations, so repeated runs
// are more likely to converge to the same local minimum.
type FarthestSumPoints struct {
	rng       *rand.Rand
	dropFirst bool
}

var _ Initializer = (*FarthestSumPoints)(nil)

// NewFarthestSumPoints creates the initializer. dropFirst discards the random
// seed object after the farthest objects have been accumulated against it.
func NewFarthestSumPoints(seed int64, dropFirst bool) *FarthestSumPoints {
	return &FarthestSumPoints{
		rng:       rand.New(rand.NewSource(seed)),
		dropFirst: dropFirst,
	}
}

// ChooseInitialMeans implements Initializer.
func (f *FarthestSumPoints) ChooseInitialMeans(data dataset.Dataset, k int, metric distance.Metric) ([][]float64, error) {
	if data.Size() < k {
		return nil, fmt.Errorf("clustering: cannot choose k=%d means from %d objects", k, data.Size())
	}

	// Accumulated distance sums; NaN marks already-chosen objects.
	sums := make([]float64, data.Size())

	first := uint32(f.rng.Intn(data.Size()))
	prevMean, _ := data.Vector(first)

	means := make([][]float64, 0, k)
	means = append(means, toFloat64(prevMean))

	start := 1
	if f.dropFirst {
		start = 0
	}
	for i := start; i < k; i++ {
		maxdist := math.Inf(-1)
		var best uint32
		for id, v := range data.All() {
			prev := sums[id]
			if math.IsNaN(prev) {
				continue
			}
			dsum := prev + metric.Distance(prevMean, v)
			// Don't store distances to the first mean when it will be dropped.
			if i > 0 {
				sums[id] = dsum
			}
			if dsum > maxdist {
				maxdist = dsum
				best = id
			}
		}
		if i == 0 {
			means = means[:0]
		}
		sums[best] = math.NaN()
		prevMean, _ = data.Vector(best)
		means = append(means, toFloat64(prevMean))
	}
	return means, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
