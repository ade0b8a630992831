// Package testutil provides shared fixtures for index and clustering tests:
// a seeded thread-safe RNG, dataset generators, and brute-force reference
// searches to cross-check index results against.
package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
)

// RNG encapsulates a seeded random number generator. It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Float32 returns a pseudo-random number in [0.0, 1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// Intn returns a non-negative pseudo-random number in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// UniformVectors generates num random vectors with values in [minVal, maxVal).
func (r *RNG) UniformVectors(num, dimensions int, minVal, maxVal float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	span := maxVal - minVal
	vectors := make([][]float32, num)
	for i := range vectors {
		vec := make([]float32, dimensions)
		for j := range vec {
			vec[j] = minVal + r.rand.Float32()*span
		}
		vectors[i] = vec
	}
	return vectors
}

// UniformDataset generates a dataset of num random vectors in [0, 1).
func (r *RNG) UniformDataset(num, dimensions int) *dataset.Slice {
	data, err := dataset.NewSlice(r.UniformVectors(num, dimensions, 0, 1))
	if err != nil {
		panic(err)
	}
	return data
}

// Neighbor is a brute-force reference result.
type Neighbor struct {
	ID       uint32
	Distance float64
}

// BruteForceKNN computes the exact k nearest neighbors by exhaustive scan,
// ascending by distance.
func BruteForceKNN(data dataset.Dataset, metric distance.Metric, query []float32, k int) []Neighbor {
	all := make([]Neighbor, 0, data.Size())
	for id, v := range data.All() {
		all = append(all, Neighbor{ID: id, Distance: metric.Distance(query, v)})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

// BruteForceRange computes all neighbors within radius by exhaustive scan.
// The result is sorted by ID for stable comparison.
func BruteForceRange(data dataset.Dataset, metric distance.Metric, query []float32, radius float64) []Neighbor {
	var hits []Neighbor
	for id, v := range data.All() {
		if dist := metric.Distance(query, v); dist <= radius {
			hits = append(hits, Neighbor{ID: id, Distance: dist})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].ID < hits[j].ID })
	return hits
}
