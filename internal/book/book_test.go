package book

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"main/internal/schema"
)

func newTestBook() *Book {
	b := &Book{}
	b.Reset(schema.NewSymbolKey("AAPL"), 2, 10)
	return b
}

func TestSnapshotDerivedQuantities(t *testing.T) {
	b := newTestBook()
	b.ApplyUpdate(schema.SideBid, 0, 10000, 500) // 100.00 x 500
	b.ApplyUpdate(schema.SideAsk, 0, 10001, 400) // 100.01 x 400

	snap := b.Snapshot()
	require.Equal(t, schema.Price(10000), snap.BestBid())
	require.Equal(t, schema.Price(10001), snap.BestAsk())
	require.Equal(t, schema.Price(1), snap.Spread())
	assert.InDelta(t, 100.005, snap.Mid(), 1e-9)
	assert.InDelta(t, 0.01/100.005*10000, snap.SpreadBps(), 1e-9)

	require.Equal(t, schema.Quantity(500), snap.Bids[0].Qty)
	require.Equal(t, schema.Quantity(400), snap.Asks[0].Qty)
	require.Equal(t, uint32(1), snap.BidDepth)
	require.Equal(t, uint32(1), snap.AskDepth)
}

func TestEmptyBookSentinels(t *testing.T) {
	b := newTestBook()
	snap := b.Snapshot()
	require.Equal(t, schema.Price(0), snap.BestBid())
	require.Equal(t, PriceInfinity, snap.BestAsk())
	require.Equal(t, uint64(0), snap.BidSeq)
	require.Equal(t, uint64(0), snap.AskSeq)
}

func TestSequenceStrictlyIncreases(t *testing.T) {
	b := newTestBook()
	prev := uint64(0)
	for i := 0; i < 100; i++ {
		b.ApplyUpdate(schema.SideBid, i%10, schema.Price(10000+i), 1)
		snap := b.Snapshot()
		require.Greater(t, snap.BidSeq, prev, "bid sequence must strictly increase")
		prev = snap.BidSeq
	}
	require.Equal(t, uint64(0), b.Snapshot().AskSeq, "ask side untouched")
}

func TestDepthGrowsWithTouchedLevels(t *testing.T) {
	b := newTestBook()
	b.ApplyUpdate(schema.SideAsk, 4, 10050, 10)
	snap := b.Snapshot()
	require.Equal(t, uint32(5), snap.AskDepth)

	// lower level updates do not shrink depth
	b.ApplyUpdate(schema.SideAsk, 0, 10010, 10)
	require.Equal(t, uint32(5), b.Snapshot().AskDepth)
}

func TestUpdateBeyondDepthIgnored(t *testing.T) {
	b := &Book{}
	b.Reset(schema.NewSymbolKey("MSFT"), 2, 4)
	b.ApplyUpdate(schema.SideBid, 4, 10000, 1)
	b.ApplyUpdate(schema.SideBid, -1, 10000, 1)
	snap := b.Snapshot()
	require.Equal(t, uint32(0), snap.BidDepth)
	require.Equal(t, uint64(0), snap.BidSeq)
}

func TestResetClearsState(t *testing.T) {
	b := newTestBook()
	b.ApplyUpdate(schema.SideBid, 0, 10000, 500)
	b.Reset(schema.NewSymbolKey("TSLA"), 2, 10)

	snap := b.Snapshot()
	require.Equal(t, "TSLA", snap.Symbol.String())
	require.Equal(t, uint32(0), snap.BidDepth)
	require.Equal(t, uint64(0), snap.BidSeq)
	require.Equal(t, schema.Price(0), snap.Bids[0].Price)
}

// TestSnapshotConsistentUnderWrites snapshots while the writer hammers the
// ask side; the untouched bid side must stay internally consistent in every
// snapshot and the ask sequence must never move backwards.
func TestSnapshotConsistentUnderWrites(t *testing.T) {
	b := newTestBook()
	b.ApplyUpdate(schema.SideBid, 0, 10000, 500)
	bidSnap := b.Snapshot()

	const updates = 200000
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < updates; i++ {
			b.ApplyUpdate(schema.SideAsk, i%10, schema.Price(10001+i%50), schema.Quantity(1+i%7))
		}
	}()

	prevSeq := uint64(0)
	for i := 0; i < 5000; i++ {
		snap := b.Snapshot()
		if snap.Bids[0] != bidSnap.Bids[0] || snap.BidDepth != bidSnap.BidDepth || snap.BidSeq != bidSnap.BidSeq {
			t.Fatalf("bid side changed under ask-side writes: %+v", snap.Bids[0])
		}
		if snap.AskSeq < prevSeq {
			t.Fatalf("ask sequence moved backwards: %d -> %d", prevSeq, snap.AskSeq)
		}
		prevSeq = snap.AskSeq
	}
	wg.Wait()

	final := b.Snapshot()
	require.Equal(t, uint64(updates), final.AskSeq)
}
