package vafile

import (
	"errors"
	"fmt"
)

var (
	// ErrNotBuilt is returned by queries issued before Build completed.
	ErrNotBuilt = errors.New("index not built")

	// ErrAlreadyBuilt is returned by a second Build call.
	ErrAlreadyBuilt = errors.New("index already built")

	// ErrInvalidK is returned when k is not positive or exceeds the dataset size.
	ErrInvalidK = errors.New("invalid k")

	// ErrInvalidRadius is returned when a range query radius is negative.
	ErrInvalidRadius = errors.New("radius must be non-negative")

	// ErrEmptyDataset is returned when constructing an index over no vectors.
	ErrEmptyDataset = errors.New("dataset is empty")

	// ErrUnsupportedMetric is returned when the metric does not expose a
	// Minkowski exponent, so no sound distance bounds can be computed.
	// Callers should substitute the linearscan fallback searcher.
	ErrUnsupportedMetric = errors.New("metric does not support Lp bound estimation")
)

// ErrInvalidPartitions indicates a partition count that is not a power of
// two greater than one.
type ErrInvalidPartitions struct {
	Partitions int
}

func (e *ErrInvalidPartitions) Error() string {
	return fmt.Sprintf("partitions must be a power of 2 greater than 1, got %d", e.Partitions)
}

// ErrInvalidPageSize indicates a non-positive simulated page size.
type ErrInvalidPageSize struct {
	PageSize int
}

func (e *ErrInvalidPageSize) Error() string {
	return fmt.Sprintf("page size must be positive, got %d", e.PageSize)
}

// ErrDimensionMismatch indicates a query/dataset dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
