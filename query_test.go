package vafile

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikiec84/vafile/dataset"
	"github.com/mikiec84/vafile/distance"
	"github.com/mikiec84/vafile/testutil"
)

func buildIndex(t *testing.T, data dataset.Dataset, metric distance.Metric, optFns ...Option) *VAFile {
	t.Helper()
	va, err := New(data, metric, optFns...)
	require.NoError(t, err)
	require.NoError(t, va.Build(context.Background()))
	return va
}

func assertMatchesBruteForce(t *testing.T, got []SearchResult, want []testutil.Neighbor) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range got {
		assert.Equal(t, want[i].ID, got[i].ID, "rank %d", i)
		assert.InDelta(t, want[i].Distance, got[i].Distance, 1e-9, "rank %d", i)
	}
}

// TestKNNSearchSmall is the 8-point, 4-partition scenario: 3-NN of the origin
// must match an exhaustive scan.
func TestKNNSearchSmall(t *testing.T) {
	vectors := [][]float32{
		{0.1, 0.2},
		{2.0, 3.0},
		{0.5, 0.4},
		{3.5, 0.1},
		{1.2, 1.1},
		{0.3, 2.8},
		{2.9, 2.2},
		{0.05, 0.9},
	}
	data, err := dataset.NewSlice(vectors)
	require.NoError(t, err)

	metric := distance.Euclidean()
	va := buildIndex(t, data, metric, WithPartitions(4))

	query := []float32{0, 0}
	got, err := va.KNNSearch(context.Background(), query, 3, nil)
	require.NoError(t, err)

	assertMatchesBruteForce(t, got, testutil.BruteForceKNN(data, metric, query, 3))
}

// TestKNNSearchMatchesBruteForce checks exactness over random data for
// several k, partition counts and Lp exponents.
func TestKNNSearchMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(11)
	data := rng.UniformDataset(250, 4)
	ctx := context.Background()

	for _, metric := range []distance.LPNorm{distance.Manhattan(), distance.Euclidean()} {
		for _, partitions := range []int{2, 8, 32} {
			va := buildIndex(t, data, metric, WithPartitions(partitions))

			for _, k := range []int{1, 5, 25, 250} {
				queries := rng.UniformVectors(5, 4, 0, 1)
				for _, q := range queries {
					got, err := va.KNNSearch(ctx, q, k, nil)
					require.NoError(t, err)
					assertMatchesBruteForce(t, got, testutil.BruteForceKNN(data, metric, q, k))
				}
			}
		}
	}
}

func TestRangeSearchMatchesBruteForce(t *testing.T) {
	rng := testutil.NewRNG(13)
	data := rng.UniformDataset(250, 3)
	metric := distance.Euclidean()
	ctx := context.Background()

	va := buildIndex(t, data, metric, WithPartitions(16))

	for _, radius := range []float64{0, 0.1, 0.4, 2.0} {
		queries := rng.UniformVectors(5, 3, 0, 1)
		for _, q := range queries {
			got, err := va.RangeSearch(ctx, q, radius, nil)
			require.NoError(t, err)

			want := testutil.BruteForceRange(data, metric, q, radius)
			gotIDs := make(map[uint32]float64, len(got))
			for _, r := range got {
				gotIDs[r.ID] = r.Distance
			}
			require.Len(t, gotIDs, len(want), "radius %v", radius)
			for _, n := range want {
				dist, ok := gotIDs[n.ID]
				require.True(t, ok, "missing id %d at radius %v", n.ID, radius)
				assert.InDelta(t, n.Distance, dist, 1e-9)
			}
		}
	}
}

func TestQueryIdempotence(t *testing.T) {
	rng := testutil.NewRNG(17)
	data := rng.UniformDataset(100, 3)
	ctx := context.Background()

	va := buildIndex(t, data, distance.Euclidean())
	q := []float32{0.3, 0.7, 0.5}

	first, err := va.KNNSearch(ctx, q, 10, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := va.KNNSearch(ctx, q, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	firstRange, err := va.RangeSearch(ctx, q, 0.3, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := va.RangeSearch(ctx, q, 0.3, nil)
		require.NoError(t, err)
		assert.Equal(t, firstRange, again)
	}
}

// TestQueryOutsideGrid queries with one coordinate beyond the training range:
// the coordinate is clamped to an edge cell, a warning is logged, and the
// result still matches brute force.
func TestQueryOutsideGrid(t *testing.T) {
	rng := testutil.NewRNG(19)
	data := rng.UniformDataset(150, 3)
	metric := distance.Euclidean()
	ctx := context.Background()

	var buf bytes.Buffer
	logger := NewLogger(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	va := buildIndex(t, data, metric, WithPartitions(8), WithLogger(logger))

	q := []float32{0.5, 5.0, 0.5} // second coordinate far above [0, 1)
	got, err := va.KNNSearch(ctx, q, 7, nil)
	require.NoError(t, err)

	assertMatchesBruteForce(t, got, testutil.BruteForceKNN(data, metric, q, 7))
	assert.Contains(t, buf.String(), "query outside of VA-file grid")

	t.Run("Underflow", func(t *testing.T) {
		buf.Reset()
		q := []float32{-2.0, 0.5, 0.5}
		got, err := va.KNNSearch(ctx, q, 7, nil)
		require.NoError(t, err)
		assertMatchesBruteForce(t, got, testutil.BruteForceKNN(data, metric, q, 7))
		assert.Contains(t, buf.String(), "query outside of VA-file grid")
	})
}

func TestSearchFilter(t *testing.T) {
	rng := testutil.NewRNG(23)
	data := rng.UniformDataset(100, 2)
	ctx := context.Background()

	va := buildIndex(t, data, distance.Euclidean())

	allow := roaring.New()
	for id := uint32(0); id < 50; id++ {
		allow.Add(id)
	}
	opts := &SearchOptions{Filter: FilterFromBitmap(allow)}

	got, err := va.KNNSearch(ctx, []float32{0.5, 0.5}, 10, opts)
	require.NoError(t, err)
	require.Len(t, got, 10)
	for _, r := range got {
		assert.True(t, allow.Contains(r.ID))
	}

	inRange, err := va.RangeSearch(ctx, []float32{0.5, 0.5}, 0.5, opts)
	require.NoError(t, err)
	for _, r := range inRange {
		assert.True(t, allow.Contains(r.ID))
	}

	hits := ResultBitmap(inRange)
	assert.EqualValues(t, len(inRange), hits.GetCardinality())
	assert.True(t, roaring.AndNot(hits, allow).IsEmpty())
}

func TestQueryArgumentValidation(t *testing.T) {
	rng := testutil.NewRNG(29)
	data := rng.UniformDataset(20, 2)
	ctx := context.Background()

	va := buildIndex(t, data, distance.Euclidean())

	t.Run("InvalidK", func(t *testing.T) {
		_, err := va.KNNSearch(ctx, []float32{0, 0}, 0, nil)
		require.ErrorIs(t, err, ErrInvalidK)

		_, err = va.KNNSearch(ctx, []float32{0, 0}, 21, nil)
		require.ErrorIs(t, err, ErrInvalidK)
	})

	t.Run("NegativeRadius", func(t *testing.T) {
		_, err := va.RangeSearch(ctx, []float32{0, 0}, -0.1, nil)
		require.ErrorIs(t, err, ErrInvalidRadius)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := va.KNNSearch(ctx, []float32{0, 0, 0}, 1, nil)
		var derr *ErrDimensionMismatch
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, 2, derr.Expected)
		assert.Equal(t, 3, derr.Actual)
	})

	t.Run("CancelledContext", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := va.KNNSearch(cctx, []float32{0, 0}, 1, nil)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestConcurrentQueries(t *testing.T) {
	rng := testutil.NewRNG(31)
	data := rng.UniformDataset(200, 3)
	metric := distance.Euclidean()
	ctx := context.Background()

	va := buildIndex(t, data, metric)

	q := []float32{0.4, 0.4, 0.4}
	want := testutil.BruteForceKNN(data, metric, q, 10)

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			for j := 0; j < 20; j++ {
				got, err := va.KNNSearch(ctx, q, 10, nil)
				if err != nil {
					done <- err
					return
				}
				for r := range got {
					if got[r].ID != want[r].ID {
						done <- assert.AnError
						return
					}
				}
			}
			done <- nil
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}

	assert.EqualValues(t, 160, va.Stats().Scans)
}
