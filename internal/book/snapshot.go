package book

import (
	"math"

	"main/internal/schema"
)

// Snapshot is an immutable value copy of a book. It has no ownership
// relationship to the book after capture.
type Snapshot struct {
	Symbol     schema.SymbolKey
	Bids       [DepthCap]PriceLevel
	Asks       [DepthCap]PriceLevel
	BidDepth   uint32
	AskDepth   uint32
	BidSeq     uint64
	AskSeq     uint64
	Timestamp  int64
	PriceScale int
}

// BestBid returns the top bid price, 0 when the bid ladder is empty.
func (s *Snapshot) BestBid() schema.Price {
	if s.BidDepth == 0 {
		return 0
	}
	return s.Bids[0].Price
}

// BestAsk returns the top ask price, PriceInfinity when the ask ladder is
// empty.
func (s *Snapshot) BestAsk() schema.Price {
	if s.AskDepth == 0 {
		return PriceInfinity
	}
	return s.Asks[0].Price
}

// Mid returns the unscaled arithmetic mean of the best bid and ask.
func (s *Snapshot) Mid() float64 {
	bb := float64(s.BestBid())
	ba := float64(s.BestAsk())
	return (bb + ba) / 2 / math.Pow10(s.PriceScale)
}

// Spread returns the scaled difference between best ask and best bid.
func (s *Snapshot) Spread() schema.Price {
	return s.BestAsk() - s.BestBid()
}

// SpreadBps returns the spread relative to mid in basis points, 0 when mid
// is not positive.
func (s *Snapshot) SpreadBps() float64 {
	mid := s.Mid()
	if mid <= 0 {
		return 0
	}
	spread := float64(s.Spread()) / math.Pow10(s.PriceScale)
	return spread / mid * 10000
}
