// Package feed creates synthetic market data records for demo runs and
// tests. It stands in for the out-of-scope I/O layer that would normally
// fill the record ring.
package feed

import (
	"time"

	"github.com/yanun0323/errors"

	"main/internal/schema"
)

// Generator produces a deterministic stream of ladder updates: it walks
// symbols round-robin and alternates sides and levels.
type Generator struct {
	symbols   []schema.SymbolKey
	basePrice schema.Price
	baseQty   schema.Quantity
	spread    schema.Price
	depth     int
	tick      uint64
}

// NewGenerator builds a generator over the given symbols.
func NewGenerator(symbols []string, basePrice schema.Price, baseQty schema.Quantity, spread schema.Price, depth int) (*Generator, error) {
	if len(symbols) == 0 {
		return nil, errors.New("generator needs at least one symbol")
	}
	if depth <= 0 {
		depth = 1
	}
	if baseQty <= 0 {
		baseQty = 1
	}
	if spread < 0 {
		spread = 0
	}
	keys := make([]schema.SymbolKey, len(symbols))
	for i, s := range symbols {
		keys[i] = schema.NewSymbolKey(s)
	}
	return &Generator{
		symbols:   keys,
		basePrice: basePrice,
		baseQty:   baseQty,
		spread:    spread,
		depth:     depth,
	}, nil
}

// Next creates the next record in sequence.
func (g *Generator) Next(now time.Time) schema.Record {
	n := g.tick
	g.tick++

	symIdx := int(n) % len(g.symbols)
	step := n / uint64(len(g.symbols))
	side := schema.Side(step % 2)
	level := int(step/2) % g.depth

	base := g.basePrice + schema.Price(symIdx)
	var price schema.Price
	if side == schema.SideBid {
		price = base - schema.Price(level)
	} else {
		price = base + g.spread + schema.Price(level)
	}

	return schema.Record{
		Symbol:  g.symbols[symIdx],
		Side:    side,
		Level:   uint8(level),
		Price:   price,
		Qty:     g.baseQty * schema.Quantity(level+1),
		TsEvent: now.UnixNano(),
	}
}
