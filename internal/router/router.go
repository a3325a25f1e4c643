// Package router resolves inbound market data records to their per-symbol
// books, creating books lazily from a fixed pool on first observation.
package router

import (
	"main/internal/book"
	"main/internal/pool"
	"main/internal/schema"
	"main/internal/symidx"
)

// Config fixes the shape of books the router creates.
type Config struct {
	MaxDepth          int
	DefaultPriceScale int
	// PriceScales overrides the default scale per symbol.
	PriceScales map[schema.SymbolKey]int
}

// Router composes the symbol index with the book pool. Creation races are
// arbitrated by the index: the first successful insert wins and the loser
// returns its speculative allocation to the pool.
type Router struct {
	cfg   Config
	index *symidx.Index[book.Book]
	books *pool.Pool[book.Book]
}

// New wires a router onto an existing index and pool.
func New(index *symidx.Index[book.Book], books *pool.Pool[book.Book], cfg Config) *Router {
	if cfg.MaxDepth <= 0 || cfg.MaxDepth > book.DepthCap {
		cfg.MaxDepth = book.DepthCap
	}
	return &Router{cfg: cfg, index: index, books: books}
}

// ResolveOrCreate returns the live book for symbol, allocating one on first
// sight. ok is false when either the pool or the index is exhausted.
func (r *Router) ResolveOrCreate(symbol schema.SymbolKey) (*book.Book, bool) {
	if b, ok := r.index.Find(symbol); ok {
		return b, true
	}

	nb, h, ok := r.books.Get()
	if !ok {
		return nil, false
	}
	nb.Reset(symbol, r.scaleFor(symbol), r.cfg.MaxDepth)

	actual, inserted := r.index.GetOrInsert(symbol, nb)
	if actual == nil {
		// index full; the speculative book goes back
		r.books.Put(h)
		return nil, false
	}
	if !inserted {
		// lost the creation race to another thread
		r.books.Put(h)
	}
	return actual, true
}

// Apply routes one record to its book. ok is false when the book could not
// be resolved (capacity exhaustion), which callers treat as a drop.
func (r *Router) Apply(rec schema.Record) bool {
	b, ok := r.ResolveOrCreate(rec.Symbol)
	if !ok {
		return false
	}
	b.ApplyUpdate(rec.Side, int(rec.Level), rec.Price, rec.Qty)
	return true
}

// Find returns the book for symbol without creating one.
func (r *Router) Find(symbol schema.SymbolKey) (*book.Book, bool) {
	return r.index.Find(symbol)
}

// Range visits every live book until fn returns false.
func (r *Router) Range(fn func(symbol schema.SymbolKey, b *book.Book) bool) {
	r.index.Range(fn)
}

// BookCount returns the number of live books.
func (r *Router) BookCount() int {
	return r.index.Len()
}

func (r *Router) scaleFor(symbol schema.SymbolKey) int {
	if s, ok := r.cfg.PriceScales[symbol]; ok {
		return s
	}
	return r.cfg.DefaultPriceScale
}
