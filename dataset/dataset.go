// Package dataset provides read-only accessors for fixed-dimensionality
// vector collections consumed by the index and clustering packages.
package dataset

import (
	"fmt"
	"iter"
)

// Dataset is a read-only snapshot of identified vectors.
//
// Implementations must be safe for concurrent readers. Identifiers are dense
// in [0, Size) for the in-memory implementation, but consumers must not rely
// on that and should iterate via All.
type Dataset interface {
	// Size returns the number of vectors in the dataset.
	Size() int

	// Dimensionality returns the shared dimensionality of all vectors.
	Dimensionality() int

	// Vector returns the vector for the given identifier.
	Vector(id uint32) ([]float32, bool)

	// All iterates over all (identifier, vector) pairs in a stable order.
	All() iter.Seq2[uint32, []float32]
}

// Slice is an in-memory Dataset backed by a slice of vectors.
// Identifiers are the slice positions.
type Slice struct {
	vectors [][]float32
	dim     int
}

var _ Dataset = (*Slice)(nil)

// NewSlice creates a Slice dataset from the given vectors.
// All vectors must share the same non-zero dimensionality.
func NewSlice(vectors [][]float32) (*Slice, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("dataset: no vectors")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("dataset: zero dimensionality")
	}

	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("dataset: vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	return &Slice{vectors: vectors, dim: dim}, nil
}

// Size returns the number of vectors.
func (s *Slice) Size() int { return len(s.vectors) }

// Dimensionality returns the vector dimensionality.
func (s *Slice) Dimensionality() int { return s.dim }

// Vector returns the vector stored at id.
// The returned slice aliases internal memory and must be treated as read-only.
func (s *Slice) Vector(id uint32) ([]float32, bool) {
	if int(id) >= len(s.vectors) {
		return nil, false
	}
	return s.vectors[id], true
}

// All iterates vectors in identifier order.
func (s *Slice) All() iter.Seq2[uint32, []float32] {
	return func(yield func(uint32, []float32) bool) {
		for i, v := range s.vectors {
			if !yield(uint32(i), v) {
				return
			}
		}
	}
}
