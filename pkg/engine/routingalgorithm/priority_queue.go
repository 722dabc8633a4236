package routingalgorithm

import (
	"errors"

	"golang.org/x/exp/constraints"
)

type Item interface {
	constraints.Integer
}

type PriorityQueueNode[T Item] struct {
	Rank float64
	Item T
}

// MinHeap binary heap priority queue with decrease-key.
type MinHeap[T Item] struct {
	heap []PriorityQueueNode[T]
	pos  map[T]int
}

func NewMinHeap[T Item]() *MinHeap[T] {
	return &MinHeap[T]{
		heap: make([]PriorityQueueNode[T], 0),
		pos:  make(map[T]int),
	}
}

func (h *MinHeap[T]) parent(index int) int {
	return (index - 1) / 2
}

func (h *MinHeap[T]) leftChild(index int) int {
	return 2*index + 1
}

func (h *MinHeap[T]) rightChild(index int) int {
	return 2*index + 2
}

func (h *MinHeap[T]) swap(i, j int) {
	h.heap[i], h.heap[j] = h.heap[j], h.heap[i]
	h.pos[h.heap[i].Item] = i
	h.pos[h.heap[j].Item] = j
}

// heapifyUp moves index towards the root while its parent ranks higher. O(log N).
func (h *MinHeap[T]) heapifyUp(index int) {
	for index != 0 && h.heap[index].Rank < h.heap[h.parent(index)].Rank {
		h.swap(index, h.parent(index))
		index = h.parent(index)
	}
}

// heapifyDown moves index towards the leaves while a child ranks lower. O(log N).
func (h *MinHeap[T]) heapifyDown(index int) {
	for {
		smallest := index
		left := h.leftChild(index)
		right := h.rightChild(index)

		if left < len(h.heap) && h.heap[left].Rank < h.heap[smallest].Rank {
			smallest = left
		}
		if right < len(h.heap) && h.heap[right].Rank < h.heap[smallest].Rank {
			smallest = right
		}
		if smallest == index {
			return
		}
		h.swap(index, smallest)
		index = smallest
	}
}

func (h *MinHeap[T]) isEmpty() bool {
	return len(h.heap) == 0
}

func (h *MinHeap[T]) Size() int {
	return len(h.heap)
}

func (h *MinHeap[T]) GetMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, errors.New("heap is empty")
	}
	return h.heap[0], nil
}

func (h *MinHeap[T]) Insert(key PriorityQueueNode[T]) {
	h.heap = append(h.heap, key)
	index := h.Size() - 1
	h.pos[key.Item] = index
	h.heapifyUp(index)
}

// ExtractMin pops the root. O(log N).
func (h *MinHeap[T]) ExtractMin() (PriorityQueueNode[T], error) {
	if h.isEmpty() {
		return PriorityQueueNode[T]{}, errors.New("heap is empty")
	}
	root := h.heap[0]
	last := h.Size() - 1
	h.heap[0] = h.heap[last]
	h.pos[h.heap[0].Item] = 0
	h.heap = h.heap[:last]
	h.pos[root.Item] = -1
	if !h.isEmpty() {
		h.heapifyDown(0)
	}
	return root, nil
}

// DecreaseKey lowers the rank of an item already in the heap. O(log N).
func (h *MinHeap[T]) DecreaseKey(item PriorityQueueNode[T]) error {
	idx, ok := h.pos[item.Item]
	if !ok || idx < 0 || idx >= h.Size() || item.Rank > h.heap[idx].Rank {
		return errors.New("invalid index or new value")
	}
	h.heap[idx] = item
	h.heapifyUp(idx)
	return nil
}

func (h *MinHeap[T]) Contains(item T) bool {
	idx, ok := h.pos[item]
	return ok && idx >= 0
}
