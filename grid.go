package vafile

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/mikiec84/vafile/dataset"
)

// gridEpsilon inflates the upper border of each dimension so the maximum
// observed value falls strictly inside the last cell.
const gridEpsilon = 0.000001

// buildGrid computes the per-dimension quantile boundaries for the dataset.
//
// Each dimension yields partitions+1 non-decreasing borders: border b is the
// sorted value at rank floor(b*size/partitions), and the final border is the
// maximum value plus gridEpsilon. Dimensions are processed concurrently, one
// goroutine per dimension, since the per-dimension sort dominates build cost.
func buildGrid(ctx context.Context, data dataset.Dataset, partitions int) ([][]float64, error) {
	dims := data.Dimensionality()
	size := data.Size()
	grid := make([][]float64, dims)

	g, ctx := errgroup.WithContext(ctx)
	for d := 0; d < dims; d++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			values := make([]float64, 0, size)
			for _, v := range data.All() {
				values = append(values, float64(v[d]))
			}
			sort.Float64s(values)

			borders := make([]float64, partitions+1)
			for b := 0; b < partitions; b++ {
				borders[b] = values[b*size/partitions]
			}
			borders[partitions] = values[size-1] + gridEpsilon

			grid[d] = borders
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return grid, nil
}
