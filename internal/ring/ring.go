// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package ring provides a fixed capacity buffer that evicts its oldest value.
package ring

import "sync"

// Buffer is a concurrency safe circular buffer.
type Buffer[T any] struct {
	mu    sync.RWMutex
	items []T
	start int
	size  int
}

// New returns a buffer holding at most capacity values.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Buffer[T]{
		items: make([]T, capacity),
	}
}

// Cap returns the capacity of the buffer.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Len returns the number of stored values.
func (b *Buffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.size
}

// Push appends v, evicting the oldest value when full.
func (b *Buffer[T]) Push(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	end := (b.start + b.size) % len(b.items)
	b.items[end] = v
	if b.size < len(b.items) {
		b.size++
		return
	}
	b.start = (b.start + 1) % len(b.items)
}

// Snapshot copies the stored values, oldest first.
func (b *Buffer[T]) Snapshot() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]T, b.size)
	for i := range b.size {
		out[i] = b.items[(b.start+i)%len(b.items)]
	}
	return out
}

// Clear removes every value.
func (b *Buffer[T]) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.items)
	b.start = 0
	b.size = 0
}
