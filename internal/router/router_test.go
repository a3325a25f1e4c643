package router

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"main/internal/book"
	"main/internal/pool"
	"main/internal/schema"
	"main/internal/symidx"
)

func newTestRouter(poolCap, indexCap int) *Router {
	index := symidx.New[book.Book](indexCap)
	books := pool.New[book.Book](poolCap, nil, nil)
	return New(index, books, Config{
		MaxDepth:          10,
		DefaultPriceScale: 2,
	})
}

func TestResolveOrCreateIdempotent(t *testing.T) {
	r := newTestRouter(8, 16)
	key := schema.NewSymbolKey("AAPL")

	first, ok := r.ResolveOrCreate(key)
	require.True(t, ok)
	availAfterFirst := r.books.Available()

	second, ok := r.ResolveOrCreate(key)
	require.True(t, ok)
	require.Same(t, first, second, "repeat resolution must return the same book")
	require.Equal(t, availAfterFirst, r.books.Available(),
		"repeat resolution must not allocate from the pool")
	require.Equal(t, 1, r.BookCount())
}

func TestApplyRoutesToBook(t *testing.T) {
	r := newTestRouter(8, 16)
	rec := schema.Record{
		Symbol: schema.NewSymbolKey("MSFT"),
		Side:   schema.SideBid,
		Level:  0,
		Price:  41000,
		Qty:    250,
	}
	require.True(t, r.Apply(rec))

	b, ok := r.Find(rec.Symbol)
	require.True(t, ok)
	snap := b.Snapshot()
	require.Equal(t, schema.Price(41000), snap.BestBid())
	require.Equal(t, schema.Quantity(250), snap.Bids[0].Qty)
	require.Equal(t, uint64(1), snap.BidSeq)
}

func TestPoolExhaustionIsADrop(t *testing.T) {
	r := newTestRouter(1, 16)
	require.True(t, r.Apply(schema.Record{Symbol: schema.NewSymbolKey("ONE"), Price: 1, Qty: 1}))
	// pool is exhausted: a second symbol cannot be created
	require.False(t, r.Apply(schema.Record{Symbol: schema.NewSymbolKey("TWO"), Price: 1, Qty: 1}))
	// existing symbol keeps working
	require.True(t, r.Apply(schema.Record{Symbol: schema.NewSymbolKey("ONE"), Price: 2, Qty: 2}))
}

// TestCreationRaceConvergesToOneBook races many goroutines creating the same
// new symbol; all must converge on one live book and the losers' pool
// allocations must be returned.
func TestCreationRaceConvergesToOneBook(t *testing.T) {
	const workers = 8
	r := newTestRouter(workers, 16)
	key := schema.NewSymbolKey("BTCUSDT")

	results := make([]*book.Book, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			b, ok := r.ResolveOrCreate(key)
			if !ok {
				t.Errorf("worker %d failed to resolve", w)
				return
			}
			results[w] = b
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		require.Same(t, results[0], results[w], "racing creations must converge")
	}
	require.Equal(t, 1, r.BookCount())
	require.Equal(t, workers-1, r.books.Available(),
		"losers must return their speculative allocations")
}

func TestDistinctSymbolsGetDistinctBooks(t *testing.T) {
	r := newTestRouter(16, 32)
	seen := make(map[*book.Book]bool)
	for i := 0; i < 8; i++ {
		b, ok := r.ResolveOrCreate(schema.NewSymbolKey(fmt.Sprintf("SYM%d", i)))
		require.True(t, ok)
		require.False(t, seen[b], "distinct symbols must not share a book")
		seen[b] = true
	}
	require.Equal(t, 8, r.BookCount())
}

func TestPerSymbolPriceScale(t *testing.T) {
	index := symidx.New[book.Book](16)
	books := pool.New[book.Book](4, nil, nil)
	key := schema.NewSymbolKey("BTCUSDT")
	r := New(index, books, Config{
		MaxDepth:          10,
		DefaultPriceScale: 2,
		PriceScales:       map[schema.SymbolKey]int{key: 4},
	})

	b, ok := r.ResolveOrCreate(key)
	require.True(t, ok)
	b.ApplyUpdate(schema.SideBid, 0, 1000000, 1) // 100.0000
	b.ApplyUpdate(schema.SideAsk, 0, 1000100, 1) // 100.0100
	snap := b.Snapshot()
	require.InDelta(t, 100.005, snap.Mid(), 1e-9)
}
