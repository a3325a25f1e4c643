// Package pipeline moves inbound records from the producer side through the
// ring into per-symbol books. The producer surface is non-blocking: a full
// ring is reported as an error and the caller decides whether to retry or
// drop.
package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/obs"
	"main/internal/router"
	"main/internal/schema"
	"main/pkg/exception"
)

// queue abstracts over the SPSC and MPSC ring variants.
type queue interface {
	Push(schema.Record) bool
	Pop() (schema.Record, bool)
	Len() int
	Cap() int
}

// OnUpdate is invoked on the consumer goroutine after a record has been
// applied to its book.
type OnUpdate func(b *book.Book, rec schema.Record)

// Pipeline owns the record ring and drains it into the router.
type Pipeline struct {
	queue    queue
	router   *router.Router
	metrics  *obs.Metrics
	onUpdate OnUpdate
}

// New wires a pipeline onto a ring and router. metrics may be nil.
func New(q queue, r *router.Router, metrics *obs.Metrics) *Pipeline {
	return &Pipeline{queue: q, router: r, metrics: metrics}
}

// RegisterCallback sets the update callback. Must be called before Run.
func (p *Pipeline) RegisterCallback(fn OnUpdate) {
	p.onUpdate = fn
}

// Submit pushes one record into the ring. With an MPSC ring any goroutine
// may call Submit; with an SPSC ring only one.
func (p *Pipeline) Submit(rec schema.Record) error {
	if !p.queue.Push(rec) {
		p.metrics.IncRingDrop()
		return exception.ErrRingFull
	}
	return nil
}

// Run drains the ring until the context is done. It is the single consumer
// and the single book writer.
func (p *Pipeline) Run(ctx context.Context) {
	logs.Info("pipeline started")
	for {
		rec, ok := p.queue.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				logs.Info("pipeline stopped")
				return
			default:
				runtime.Gosched()
				continue
			}
		}
		p.process(rec)
	}
}

// Drain processes buffered records until the ring is empty and returns the
// number applied. It shares the consumer role with Run and must not run
// concurrently with it.
func (p *Pipeline) Drain() int {
	n := 0
	for {
		rec, ok := p.queue.Pop()
		if !ok {
			return n
		}
		p.process(rec)
		n++
	}
}

func (p *Pipeline) process(rec schema.Record) {
	start := time.Now()
	booksBefore := p.router.BookCount()
	if !p.router.Apply(rec) {
		p.metrics.IncRouteDrop()
		return
	}
	if p.router.BookCount() > booksBefore {
		p.metrics.IncBookCreated()
	}
	p.metrics.IncApplied()
	p.metrics.ObserveApply(time.Since(start))

	if p.onUpdate != nil {
		if b, ok := p.router.Find(rec.Symbol); ok {
			p.onUpdate(b, rec)
		}
	}
}

// SnapshotOf captures a point-in-time snapshot for symbol. Safe to call
// from any goroutine.
func (p *Pipeline) SnapshotOf(symbol schema.SymbolKey) (book.Snapshot, error) {
	b, ok := p.router.Find(symbol)
	if !ok {
		return book.Snapshot{}, exception.ErrUnknownSymbol
	}
	start := time.Now()
	snap := b.Snapshot()
	p.metrics.ObserveSnapshot(time.Since(start))
	return snap, nil
}

// Backlog returns the approximate number of buffered records.
func (p *Pipeline) Backlog() int {
	return p.queue.Len()
}
