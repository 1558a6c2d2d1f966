package engine

import "fmt"

// RollingBuffer keeps the most recent capacity items in insertion order.
// Pushing onto a full buffer evicts the oldest item.
type RollingBuffer[T any] struct {
	data     []T
	capacity int
	head     int // next write position
	size     int
}

// NewRollingBuffer panics on a non-positive capacity.
func NewRollingBuffer[T any](capacity int) *RollingBuffer[T] {
	if capacity < 1 {
		panic(fmt.Sprintf("engine: rolling buffer capacity must be positive, got %d", capacity))
	}
	return &RollingBuffer[T]{
		data:     make([]T, capacity),
		capacity: capacity,
	}
}

// Push appends item, overwriting the oldest entry once full.
func (b *RollingBuffer[T]) Push(item T) {
	b.data[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	if b.size > b.capacity {
		panic(fmt.Sprintf("engine: rolling buffer holds %d items, capacity %d", b.size, b.capacity))
	}
}

// Items returns a copy of the contents, oldest first.
func (b *RollingBuffer[T]) Items() []T {
	out := make([]T, b.size)
	start := (b.head - b.size + b.capacity) % b.capacity
	for i := 0; i < b.size; i++ {
		out[i] = b.data[(start+i)%b.capacity]
	}
	return out
}

// Last returns the most recently pushed item.
func (b *RollingBuffer[T]) Last() (T, bool) {
	var zero T
	if b.size == 0 {
		return zero, false
	}
	return b.data[(b.head-1+b.capacity)%b.capacity], true
}

func (b *RollingBuffer[T]) Len() int { return b.size }
func (b *RollingBuffer[T]) Cap() int { return b.capacity }
