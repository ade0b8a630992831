package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlice(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		data, err := NewSlice([][]float32{{1, 2}, {3, 4}, {5, 6}})
		require.NoError(t, err)
		assert.Equal(t, 3, data.Size())
		assert.Equal(t, 2, data.Dimensionality())
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := NewSlice(nil)
		require.Error(t, err)
	})

	t.Run("ZeroDimensionality", func(t *testing.T) {
		_, err := NewSlice([][]float32{{}})
		require.Error(t, err)
	})

	t.Run("RaggedVectors", func(t *testing.T) {
		_, err := NewSlice([][]float32{{1, 2}, {3}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vector 1")
	})
}

func TestSliceVector(t *testing.T) {
	data, err := NewSlice([][]float32{{1, 2}, {3, 4}})
	require.NoError(t, err)

	v, ok := data.Vector(1)
	require.True(t, ok)
	assert.Equal(t, []float32{3, 4}, v)

	_, ok = data.Vector(2)
	assert.False(t, ok)
}

func TestSliceAll(t *testing.T) {
	vectors := [][]float32{{1}, {2}, {3}}
	data, err := NewSlice(vectors)
	require.NoError(t, err)

	var ids []uint32
	for id, v := range data.All() {
		assert.Equal(t, vectors[id], v)
		ids = append(ids, id)
	}
	assert.Equal(t, []uint32{0, 1, 2}, ids)

	t.Run("EarlyStop", func(t *testing.T) {
		count := 0
		for range data.All() {
			count++
			if count == 2 {
				break
			}
		}
		assert.Equal(t, 2, count)
	})
}
