package ring

import (
	"sync/atomic"

	"main/internal/bits"
)

// mpscSlot stamps each cell with its position in the sequence space so the
// consumer only ever reads fully published items.
type mpscSlot[T any] struct {
	seq atomic.Uint64
	val T
}

// MPSC is a multi-producer/single-consumer ring. Any number of goroutines
// may Push concurrently; exactly one goroutine may Pop.
type MPSC[T any] struct {
	buf  []mpscSlot[T]
	mask uint64
	_    [40]byte
	head atomic.Uint64 // consumer-owned
	_    [56]byte
	tail atomic.Uint64 // shared among producers
	_    [56]byte
}

// NewMPSC allocates a ring; size must be a power of two.
func NewMPSC[T any](size int) *MPSC[T] {
	if size <= 1 || !bits.IsPowerOfTwo(uint64(size)) {
		panic("ring: size must be a power of two > 1")
	}
	r := &MPSC[T]{
		buf:  make([]mpscSlot[T], size),
		mask: uint64(size - 1),
	}
	for i := range r.buf {
		r.buf[i].seq.Store(uint64(i))
	}
	return r
}

// Push reserves a slot with a CAS on the shared tail, writes the item, then
// publishes the slot's sequence. Returns false when the ring is full.
func (r *MPSC[T]) Push(item T) bool {
	for {
		t := r.tail.Load()
		s := &r.buf[t&r.mask]
		seq := s.seq.Load()
		diff := int64(seq) - int64(t)
		switch {
		case diff == 0:
			if r.tail.CompareAndSwap(t, t+1) {
				s.val = item
				s.seq.Store(t + 1)
				return true
			}
		case diff < 0:
			// slot still holds the previous generation: full
			return false
		default:
			// another producer claimed this position; re-read tail
		}
	}
}

// Pop consumes one item, republishing the slot for the next wraparound.
func (r *MPSC[T]) Pop() (item T, ok bool) {
	h := r.head.Load()
	s := &r.buf[h&r.mask]
	if s.seq.Load() != h+1 {
		return item, false
	}
	item = s.val
	s.seq.Store(h + uint64(len(r.buf)))
	r.head.Store(h + 1)
	return item, true
}

// Len returns the approximate number of buffered items.
func (r *MPSC[T]) Len() int {
	h := r.head.Load()
	t := r.tail.Load()
	if t < h {
		return 0
	}
	n := t - h
	if n > uint64(len(r.buf)) {
		n = uint64(len(r.buf))
	}
	return int(n)
}

// Cap returns the number of items the ring can hold.
func (r *MPSC[T]) Cap() int {
	return len(r.buf)
}
