// Package pool provides a fixed-capacity, lock-free object pool. Slots are
// pre-allocated in one arena and addressed by integer handles, so hot paths
// never touch the heap allocator.
package pool

import (
	"sync/atomic"

	"main/internal/bits"
)

// Handle identifies a slot inside the pool arena.
type Handle uint32

// freeCell carries one recycled slot index through the free list. Each cell
// has its own sequence stamp so concurrent Get/Put never hand out the same
// index twice.
type freeCell struct {
	seq atomic.Uint64
	idx uint32
	_   [52]byte
}

// Pool hands out pre-allocated slots of T. Multiple goroutines may call Get
// and Put concurrently; both are non-blocking and fail fast on exhaustion.
type Pool[T any] struct {
	arena []T
	inUse []atomic.Bool
	ctor  func(*T)
	dtor  func(*T)

	free []freeCell
	mask uint64
	_    [48]byte
	head atomic.Uint64
	_    [56]byte
	tail atomic.Uint64
	_    [56]byte
	avail atomic.Int64
}

// New builds a pool with the given fixed capacity. ctor runs on every slot a
// Get hands out, dtor on every slot returned through Put; either may be nil.
func New[T any](capacity int, ctor, dtor func(*T)) *Pool[T] {
	if capacity <= 0 {
		panic("pool: capacity must be positive")
	}
	size := bits.NextPowerOfTwo(uint64(capacity))
	p := &Pool[T]{
		arena: make([]T, capacity),
		inUse: make([]atomic.Bool, capacity),
		ctor:  ctor,
		dtor:  dtor,
		free:  make([]freeCell, size),
		mask:  size - 1,
	}
	for i := range p.free {
		p.free[i].seq.Store(uint64(i))
	}
	for i := 0; i < capacity; i++ {
		p.free[i].idx = uint32(i)
		p.free[i].seq.Store(uint64(i) + 1)
	}
	p.tail.Store(uint64(capacity))
	p.avail.Store(int64(capacity))
	return p
}

// Get claims a free slot, runs the constructor on it, and returns the slot
// pointer with its handle. ok is false when the pool is exhausted; callers
// are expected to handle that as a normal condition.
func (p *Pool[T]) Get() (v *T, h Handle, ok bool) {
	for {
		pos := p.head.Load()
		cell := &p.free[pos&p.mask]
		seq := cell.seq.Load()
		diff := int64(seq) - int64(pos+1)
		if diff == 0 {
			if p.head.CompareAndSwap(pos, pos+1) {
				idx := cell.idx
				cell.seq.Store(pos + uint64(len(p.free)))
				p.avail.Add(-1)
				p.inUse[idx].Store(true)
				slot := &p.arena[idx]
				if p.ctor != nil {
					p.ctor(slot)
				}
				return slot, Handle(idx), true
			}
		} else if diff < 0 {
			return nil, 0, false
		}
		// another Get claimed the cell first; retry on a fresh head
	}
}

// Put tears the slot down and pushes its index back onto the free list.
// Returning a handle that is not live is a defect, not a runtime condition.
func (p *Pool[T]) Put(h Handle) {
	idx := uint32(h)
	if int(idx) >= len(p.arena) {
		panic("pool: handle out of range")
	}
	if !p.inUse[idx].CompareAndSwap(true, false) {
		panic("pool: double free")
	}
	if p.dtor != nil {
		p.dtor(&p.arena[idx])
	}
	for {
		pos := p.tail.Load()
		cell := &p.free[pos&p.mask]
		seq := cell.seq.Load()
		diff := int64(seq) - int64(pos)
		if diff == 0 {
			if p.tail.CompareAndSwap(pos, pos+1) {
				cell.idx = idx
				cell.seq.Store(pos + 1)
				p.avail.Add(1)
				return
			}
		} else if diff < 0 {
			// free list can only be full if an index was pushed twice
			panic("pool: free list overflow")
		}
	}
}

// Value resolves a handle back to its slot pointer.
func (p *Pool[T]) Value(h Handle) *T {
	return &p.arena[h]
}

// Available returns the number of free slots.
func (p *Pool[T]) Available() int {
	return int(p.avail.Load())
}

// Capacity returns the fixed slot count.
func (p *Pool[T]) Capacity() int {
	return len(p.arena)
}
