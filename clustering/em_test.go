package clustering

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
	"github.com/mikiec84/vafile/testutil"
)

// twoBlobs returns 2*perBlob points: the first half around (0, 0), the
// second half around (10, 10).
func twoBlobs(t *testing.T, perBlob int) *dataset.Slice {
	t.Helper()
	rng := testutil.NewRNG(61)
	vectors := rng.UniformVectors(2*perBlob, 2, 0, 1)
	for i := perBlob; i < 2*perBlob; i++ {
		vectors[i][0] += 10
		vectors[i][1] += 10
	}
	data, err := dataset.NewSlice(vectors)
	require.NoError(t, err)
	return data
}

func TestEMSeparatedBlobs(t *testing.T) {
	const perBlob = 30
	data := twoBlobs(t, perBlob)

	em, err := NewEM(2)
	require.NoError(t, err)

	result, err := em.Run(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, result.Clusters, 2)
	assert.GreaterOrEqual(t, result.Iterations, 1)

	// Each blob must come out as one cluster.
	for _, c := range result.Clusters {
		require.Len(t, c.IDs, perBlob)
		blob := c.IDs[0] / perBlob
		for _, id := range c.IDs {
			assert.Equal(t, blob, id/perBlob)
		}

		want := 0.5 + 10*float64(blob)
		assert.InDelta(t, want, c.Model.Mean[0], 1.0)
		assert.InDelta(t, want, c.Model.Mean[1], 1.0)
	}

	// Soft assignments are probabilities.
	require.Len(t, result.Responsibilities, data.Size())
	for id, probs := range result.Responsibilities {
		sum := 0.0
		for _, p := range probs {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "object %d", id)
	}
}

func TestEMValidation(t *testing.T) {
	t.Run("InvalidK", func(t *testing.T) {
		_, err := NewEM(0)
		require.Error(t, err)
	})

	t.Run("EmptyDataset", func(t *testing.T) {
		em, err := NewEM(2)
		require.NoError(t, err)
		_, err = em.Run(context.Background(), nil)
		require.Error(t, err)
	})

	t.Run("TooFewObjects", func(t *testing.T) {
		data, err := dataset.NewSlice([][]float32{{1, 1}, {2, 2}})
		require.NoError(t, err)
		em, err := NewEM(3)
		require.NoError(t, err)
		_, err = em.Run(context.Background(), data)
		require.Error(t, err)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		data := twoBlobs(t, 10)
		em, err := NewEM(2)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = em.Run(ctx, data)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestFarthestSumPoints(t *testing.T) {
	data := twoBlobs(t, 20)
	metric := distance.Euclidean()

	t.Run("DistinctMeans", func(t *testing.T) {
		init := NewFarthestSumPoints(1, true)
		means, err := init.ChooseInitialMeans(data, 2, metric)
		require.NoError(t, err)
		require.Len(t, means, 2)
		assert.NotEqual(t, means[0], means[1])

		// With two well-separated blobs the chosen means must land in
		// different blobs.
		assert.NotEqual(t, means[0][0] > 5, means[1][0] > 5)
	})

	t.Run("KeepFirst", func(t *testing.T) {
		init := NewFarthestSumPoints(1, false)
		means, err := init.ChooseInitialMeans(data, 3, metric)
		require.NoError(t, err)
		require.Len(t, means, 3)
		for i := range means {
			for j := i + 1; j < len(means); j++ {
				assert.NotEqual(t, means[i], means[j])
			}
		}
	})

	t.Run("TooFewObjects", func(t *testing.T) {
		small, err := dataset.NewSlice([][]float32{{1, 1}})
		require.NoError(t, err)
		init := NewFarthestSumPoints(1, true)
		_, err = init.ChooseInitialMeans(small, 2, metric)
		require.Error(t, err)
	})
}
