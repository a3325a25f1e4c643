// Package ring provides fixed-capacity, lock-free circular buffers for
// moving fixed-size records between threads: an SPSC variant for the
// single-feed fast path and an MPSC variant for fan-in producers.
package ring

import (
	"sync/atomic"

	"main/internal/bits"
)

// SPSC is a single-producer/single-consumer ring. Exactly one goroutine may
// call Push and exactly one may call Pop. One slot is kept as the full/empty
// discriminator, so a ring of size n holds n-1 items.
type SPSC[T any] struct {
	buf  []T
	mask uint64
	_    [40]byte
	head atomic.Uint64 // consumer-owned
	_    [56]byte
	tail atomic.Uint64 // producer-owned
	_    [56]byte
}

// NewSPSC allocates a ring. size must be a power of two so index wraparound
// stays a bitwise AND.
func NewSPSC[T any](size int) *SPSC[T] {
	if size <= 1 || !bits.IsPowerOfTwo(uint64(size)) {
		panic("ring: size must be a power of two > 1")
	}
	return &SPSC[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Push writes one item, returning false when the ring is full. The caller
// decides whether to retry or drop.
func (r *SPSC[T]) Push(item T) bool {
	t := r.tail.Load()
	next := (t + 1) & r.mask
	if next == r.head.Load() {
		return false
	}
	r.buf[t] = item
	// release: the consumer's acquire of tail observes the written item
	r.tail.Store(next)
	return true
}

// Pop reads one item; ok is false when the ring is empty.
func (r *SPSC[T]) Pop() (item T, ok bool) {
	h := r.head.Load()
	if h == r.tail.Load() {
		return item, false
	}
	item = r.buf[h]
	r.head.Store((h + 1) & r.mask)
	return item, true
}

// Len returns the approximate number of buffered items.
func (r *SPSC[T]) Len() int {
	h := r.head.Load()
	t := r.tail.Load()
	return int((t - h) & r.mask)
}

// Cap returns the number of items the ring can hold.
func (r *SPSC[T]) Cap() int {
	return len(r.buf) - 1
}
