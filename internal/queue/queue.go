// Package queue provides a value-based binary heap used for candidate
// pruning and bounded top-k result collection.
package queue

// Item is an entry in the priority queue.
type Item struct {
	ID    uint32  // ID is an opaque payload, typically an object identifier.
	Value float64 // Value is the priority of the item in the queue.
}

// PriorityQueue is a value-based binary heap over Items.
//
// With NewMax the top element is the largest Value; combined with PushBounded
// this keeps the k smallest values seen, which is the shape needed both for
// the k-th smallest upper bound during candidate filtering and for the
// k-nearest result set during refinement.
type PriorityQueue struct {
	isMaxHeap bool
	items     []Item
}

// NewMin initializes a new min-heap with the given initial capacity.
func NewMin(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: false, items: make([]Item, 0, capacity)}
}

// NewMax initializes a new max-heap with the given initial capacity.
func NewMax(capacity int) *PriorityQueue {
	return &PriorityQueue{isMaxHeap: true, items: make([]Item, 0, capacity)}
}

// Len returns the number of elements in the queue.
func (pq *PriorityQueue) Len() int { return len(pq.items) }

// Top returns the top element without removing it.
func (pq *PriorityQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// Push inserts an item while maintaining the heap invariant.
func (pq *PriorityQueue) Push(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// Pop removes and returns the top element.
func (pq *PriorityQueue) Pop() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items[n-1] = Item{}
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// PushBounded inserts an item and evicts the top element once the queue
// exceeds bound. For a max-heap this retains the bound smallest values.
func (pq *PriorityQueue) PushBounded(item Item, bound int) {
	if bound <= 0 {
		return
	}
	if len(pq.items) < bound {
		pq.Push(item)
		return
	}
	// Full: only admit items that beat the current top.
	top := pq.items[0]
	if pq.isMaxHeap {
		if item.Value >= top.Value {
			return
		}
	} else if item.Value <= top.Value {
		return
	}
	pq.items[0] = item
	pq.siftDown(0)
}

// Reset clears the queue for reuse without freeing memory.
func (pq *PriorityQueue) Reset() {
	pq.items = pq.items[:0]
}

// Drain pops all elements, invoking fn from top to bottom of the heap order.
func (pq *PriorityQueue) Drain(fn func(Item)) {
	for {
		item, ok := pq.Pop()
		if !ok {
			return
		}
		fn(item)
	}
}

func (pq *PriorityQueue) less(i, j int) bool {
	if pq.isMaxHeap {
		return pq.items[i].Value > pq.items[j].Value
	}
	return pq.items[i].Value < pq.items[j].Value
}

func (pq *PriorityQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PriorityQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		if r := l + 1; r < n && pq.less(r, l) {
			best = r
		}
		if !pq.less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}
