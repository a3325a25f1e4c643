// Package symidx provides a fixed-capacity concurrent symbol table with open
// addressing. One or more writers may insert while any number of readers
// look keys up; coordination is a per-slot claim plus release publication of
// the slot hash, never a lock.
package symidx

import (
	"sync/atomic"

	"main/internal/bits"
	"main/internal/schema"
)

const (
	hashEmpty     = 0
	hashTombstone = 1 // reserved for deletion support, unused here
)

const (
	fnvOffset = 14695981039346656037
	fnvPrime  = 1099511628211
)

// entry is one table slot. The key is written exactly once, before the hash
// becomes visible, and never changes afterwards; only the value may be
// swapped in place.
type entry[V any] struct {
	hash  atomic.Uint64
	claim atomic.Uint32
	key   schema.SymbolKey
	value atomic.Pointer[V]
	_     [28]byte
}

// Index maps bounded symbol keys to pointers of V.
type Index[V any] struct {
	entries []entry[V]
	mask    uint64
	count   atomic.Int64
}

// New builds an index; capacity is rounded up to the next power of two.
func New[V any](capacity int) *Index[V] {
	if capacity <= 0 {
		panic("symidx: capacity must be positive")
	}
	size := bits.NextPowerOfTwo(uint64(capacity))
	return &Index[V]{
		entries: make([]entry[V], size),
		mask:    size - 1,
	}
}

// hashKey computes FNV-1a over the meaningful key bytes, remapped away from
// the reserved empty and tombstone values.
func hashKey(key schema.SymbolKey) uint64 {
	h := uint64(fnvOffset)
	for _, b := range key[:key.Len()] {
		h ^= uint64(b)
		h *= fnvPrime
	}
	if h == hashEmpty || h == hashTombstone {
		h = 2
	}
	return h
}

// Insert upserts key to value. It returns false only when every slot is
// occupied by other keys; existing entries are never corrupted by a full
// table.
func (x *Index[V]) Insert(key schema.SymbolKey, value *V) bool {
	v, _, ok := x.upsert(key, value, true)
	return ok && v != nil
}

// GetOrInsert returns the value already mapped to key, or maps key to value
// when absent. inserted reports which happened. A nil result means the table
// is full.
func (x *Index[V]) GetOrInsert(key schema.SymbolKey, value *V) (actual *V, inserted bool) {
	actual, inserted, _ = x.upsert(key, value, false)
	return actual, inserted
}

func (x *Index[V]) upsert(key schema.SymbolKey, value *V, overwrite bool) (*V, bool, bool) {
	h := hashKey(key)
	idx := h & x.mask
	for i := 0; i < len(x.entries); i++ {
		e := &x.entries[idx]
		for {
			cur := e.hash.Load()
			if cur == hashEmpty {
				if e.claim.CompareAndSwap(0, 1) {
					e.key = key
					e.value.Store(value)
					// publication point: key and value are in slot
					// memory before the hash becomes visible
					e.hash.Store(h)
					x.count.Add(1)
					return value, true, true
				}
				// another insert is constructing this slot; wait for
				// its hash to publish, then re-evaluate
				continue
			}
			if cur == h && e.key == key {
				if overwrite {
					e.value.Store(value)
					return value, false, true
				}
				return e.value.Load(), false, true
			}
			break
		}
		idx = (idx + 1) & x.mask
	}
	return nil, false, false
}

// Find returns the value mapped to key. A find that races with the very
// first insert of key may return absent; once it has returned a value, that
// value was fully constructed before publication.
func (x *Index[V]) Find(key schema.SymbolKey) (*V, bool) {
	h := hashKey(key)
	idx := h & x.mask
	for i := 0; i < len(x.entries); i++ {
		e := &x.entries[idx]
		cur := e.hash.Load()
		if cur == hashEmpty {
			return nil, false
		}
		if cur == h && e.key == key {
			return e.value.Load(), true
		}
		idx = (idx + 1) & x.mask
	}
	return nil, false
}

// Range calls fn for every published entry until fn returns false. Entries
// inserted while the sweep runs may or may not be visited.
func (x *Index[V]) Range(fn func(key schema.SymbolKey, value *V) bool) {
	for i := range x.entries {
		e := &x.entries[i]
		cur := e.hash.Load()
		if cur == hashEmpty || cur == hashTombstone {
			continue
		}
		if !fn(e.key, e.value.Load()) {
			return
		}
	}
}

// Len returns the number of distinct keys inserted.
func (x *Index[V]) Len() int {
	return int(x.count.Load())
}

// Capacity returns the table size.
func (x *Index[V]) Capacity() int {
	return len(x.entries)
}
