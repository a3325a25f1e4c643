// Package book implements the per-symbol price-level book. One writer
// applies updates; any number of readers capture point-in-time snapshots
// without locks, using the per-side sequence counter as the publication
// point.
package book

import (
	"math"
	"sync/atomic"
	"time"

	"main/internal/schema"
)

// DepthCap bounds the ladder arrays. The configured max depth of a book may
// be anything in (0, DepthCap].
const DepthCap = 32

// PriceInfinity is the best-ask sentinel for an empty ask ladder.
const PriceInfinity = schema.Price(math.MaxInt64)

// PriceLevel is one rung of a ladder as seen by readers.
type PriceLevel struct {
	Price      schema.Price
	Qty        schema.Quantity
	OrderCount uint32
}

// level is the writer-side rung. Fields are atomics so concurrent snapshot
// copies are well defined, and the struct is padded to a cache line so
// neighbouring rungs never share one.
type level struct {
	price      atomic.Int64
	qty        atomic.Int64
	orderCount atomic.Uint32
	_          [44]byte
}

// ladder is one side of the book. The sequence counter increments on every
// mutation; its store is the release that publishes the level writes before
// it.
type ladder struct {
	levels [DepthCap]level
	_      [56]byte
	depth  atomic.Uint32
	_      [60]byte
	seq    atomic.Uint64
	_      [56]byte
}

func (l *ladder) apply(idx int, price schema.Price, qty schema.Quantity) {
	lv := &l.levels[idx]
	lv.price.Store(int64(price))
	lv.qty.Store(int64(qty))
	if uint32(idx) >= l.depth.Load() {
		l.depth.Store(uint32(idx) + 1)
	}
	l.seq.Add(1)
}

func (l *ladder) reset() {
	for i := range l.levels {
		l.levels[i].price.Store(0)
		l.levels[i].qty.Store(0)
		l.levels[i].orderCount.Store(0)
	}
	l.depth.Store(0)
	l.seq.Store(0)
}

// Book is a bid/ask ladder pair for one symbol. Books live in the router's
// pool for the life of the process.
type Book struct {
	symbol     schema.SymbolKey
	priceScale int
	maxDepth   int
	bids       ladder
	asks       ladder
}

// Reset prepares a pooled book for a symbol. It must complete before the
// book is published to readers.
func (b *Book) Reset(symbol schema.SymbolKey, priceScale, maxDepth int) {
	if maxDepth <= 0 || maxDepth > DepthCap {
		maxDepth = DepthCap
	}
	b.symbol = symbol
	b.priceScale = priceScale
	b.maxDepth = maxDepth
	b.bids.reset()
	b.asks.reset()
}

// Symbol returns the symbol this book tracks.
func (b *Book) Symbol() schema.SymbolKey {
	return b.symbol
}

// ApplyUpdate overwrites one level and bumps the side's sequence. It must be
// called from exactly one writer goroutine. Levels past the configured depth
// are ignored.
func (b *Book) ApplyUpdate(side schema.Side, levelIdx int, price schema.Price, qty schema.Quantity) {
	if levelIdx < 0 || levelIdx >= b.maxDepth {
		return
	}
	if side == schema.SideBid {
		b.bids.apply(levelIdx, price, qty)
	} else {
		b.asks.apply(levelIdx, price, qty)
	}
}

// BestBid returns the top bid price. Writer goroutine only; readers use
// Snapshot.
func (b *Book) BestBid() schema.Price {
	if b.bids.depth.Load() == 0 {
		return 0
	}
	return schema.Price(b.bids.levels[0].price.Load())
}

// BestAsk returns the top ask price. Writer goroutine only; readers use
// Snapshot.
func (b *Book) BestAsk() schema.Price {
	if b.asks.depth.Load() == 0 {
		return PriceInfinity
	}
	return schema.Price(b.asks.levels[0].price.Load())
}

// Snapshot captures both ladders as a detached value. The sequence reads
// happen first: a snapshot that observes sequence N is guaranteed to contain
// every level write up to and including update N for that side.
func (b *Book) Snapshot() Snapshot {
	var snap Snapshot
	snap.Symbol = b.symbol
	snap.PriceScale = b.priceScale
	snap.BidSeq = b.bids.seq.Load()
	snap.AskSeq = b.asks.seq.Load()
	snap.BidDepth = b.bids.depth.Load()
	snap.AskDepth = b.asks.depth.Load()
	for i := 0; i < b.maxDepth; i++ {
		snap.Bids[i] = PriceLevel{
			Price:      schema.Price(b.bids.levels[i].price.Load()),
			Qty:        schema.Quantity(b.bids.levels[i].qty.Load()),
			OrderCount: b.bids.levels[i].orderCount.Load(),
		}
		snap.Asks[i] = PriceLevel{
			Price:      schema.Price(b.asks.levels[i].price.Load()),
			Qty:        schema.Quantity(b.asks.levels[i].qty.Load()),
			OrderCount: b.asks.levels[i].orderCount.Load(),
		}
	}
	snap.Timestamp = time.Now().UnixNano()
	return snap
}
