package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriorityQueueOrdering(t *testing.T) {
	t.Run("Min", func(t *testing.T) {
		pq := NewMin(4)
		for _, v := range []float64{3, 1, 4, 1.5, 9, 2.6} {
			pq.Push(Item{Value: v})
		}

		var got []float64
		pq.Drain(func(item Item) { got = append(got, item.Value) })
		assert.Equal(t, []float64{1, 1.5, 2.6, 3, 4, 9}, got)
		assert.Equal(t, 0, pq.Len())
	})

	t.Run("Max", func(t *testing.T) {
		pq := NewMax(4)
		for _, v := range []float64{3, 1, 4, 1.5, 9, 2.6} {
			pq.Push(Item{Value: v})
		}

		var got []float64
		pq.Drain(func(item Item) { got = append(got, item.Value) })
		assert.Equal(t, []float64{9, 4, 3, 2.6, 1.5, 1}, got)
	})
}

func TestPriorityQueueEmpty(t *testing.T) {
	pq := NewMin(0)

	_, ok := pq.Top()
	assert.False(t, ok)

	_, ok = pq.Pop()
	assert.False(t, ok)
}

func TestPushBounded(t *testing.T) {
	// A bounded max-heap keeps the k smallest values.
	const k = 5
	rng := rand.New(rand.NewSource(7))

	values := make([]float64, 100)
	pq := NewMax(k)
	for i := range values {
		values[i] = rng.Float64()
		pq.PushBounded(Item{ID: uint32(i), Value: values[i]}, k)
		assert.LessOrEqual(t, pq.Len(), k)
	}

	sort.Float64s(values)
	var got []float64
	pq.Drain(func(item Item) { got = append(got, item.Value) })

	require.Len(t, got, k)
	for i, v := range got {
		assert.Equal(t, values[k-1-i], v)
	}

	t.Run("ZeroBound", func(t *testing.T) {
		pq := NewMax(1)
		pq.PushBounded(Item{Value: 1}, 0)
		assert.Equal(t, 0, pq.Len())
	})
}

func TestReset(t *testing.T) {
	pq := NewMin(2)
	pq.Push(Item{Value: 1})
	pq.Push(Item{Value: 2})
	pq.Reset()
	assert.Equal(t, 0, pq.Len())

	pq.Push(Item{ID: 7, Value: 3})
	top, ok := pq.Top()
	require.True(t, ok)
	assert.Equal(t, uint32(7), top.ID)
}
