// Package obs collects lightweight pipeline counters and latency stats.
// Everything is atomic; observing never blocks the hot path.
package obs

import (
	"sync/atomic"
	"time"
)

// Metrics counts pipeline events and aggregates latencies.
type Metrics struct {
	recordsApplied uint64
	ringDrops      uint64
	routeDrops     uint64
	booksCreated   uint64

	applyLatency    LatencyStats
	snapshotLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of latency stats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot captures the current metrics values.
type Snapshot struct {
	RecordsApplied  uint64
	RingDrops       uint64
	RouteDrops      uint64
	BooksCreated    uint64
	ApplyLatency    LatencySnapshot
	SnapshotLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncApplied records one record routed into a book.
func (m *Metrics) IncApplied() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.recordsApplied, 1)
}

// IncRingDrop records a push rejected by a full ring.
func (m *Metrics) IncRingDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.ringDrops, 1)
}

// IncRouteDrop records a record dropped by capacity exhaustion downstream of
// the ring (pool or index full).
func (m *Metrics) IncRouteDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.routeDrops, 1)
}

// IncBookCreated records a first-sight book allocation.
func (m *Metrics) IncBookCreated() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.booksCreated, 1)
}

// ObserveApply measures ring-to-book latency for one record.
func (m *Metrics) ObserveApply(d time.Duration) {
	if m == nil {
		return
	}
	m.applyLatency.Observe(d)
}

// ObserveSnapshot measures one snapshot capture.
func (m *Metrics) ObserveSnapshot(d time.Duration) {
	if m == nil {
		return
	}
	m.snapshotLatency.Observe(d)
}

// Snapshot returns a copy of the current metrics values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	return Snapshot{
		RecordsApplied:  atomic.LoadUint64(&m.recordsApplied),
		RingDrops:       atomic.LoadUint64(&m.ringDrops),
		RouteDrops:      atomic.LoadUint64(&m.routeDrops),
		BooksCreated:    atomic.LoadUint64(&m.booksCreated),
		ApplyLatency:    m.applyLatency.Snapshot(),
		SnapshotLatency: m.snapshotLatency.Snapshot(),
	}
}

// Observe records a duration sample.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		min := atomic.LoadUint64(&l.min)
		if min != 0 && nanos >= min {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, min, nanos) {
			break
		}
	}

	for {
		max := atomic.LoadUint64(&l.max)
		if nanos <= max {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, max, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	min := atomic.LoadUint64(&l.min)
	max := atomic.LoadUint64(&l.max)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(min),
		Max:   time.Duration(max),
		Avg:   time.Duration(sum / count),
	}
}
