package obs

import (
	"testing"
	"time"
)

func TestCounters(t *testing.T) {
	m := NewMetrics()
	m.IncApplied()
	m.IncApplied()
	m.IncRingDrop()
	m.IncRouteDrop()
	m.IncBookCreated()

	snap := m.Snapshot()
	if snap.RecordsApplied != 2 {
		t.Fatalf("RecordsApplied = %d, want 2", snap.RecordsApplied)
	}
	if snap.RingDrops != 1 || snap.RouteDrops != 1 || snap.BooksCreated != 1 {
		t.Fatalf("unexpected counters: %+v", snap)
	}
}

func TestLatencyStats(t *testing.T) {
	m := NewMetrics()
	m.ObserveApply(10 * time.Microsecond)
	m.ObserveApply(30 * time.Microsecond)
	m.ObserveApply(20 * time.Microsecond)

	snap := m.Snapshot().ApplyLatency
	if snap.Count != 3 {
		t.Fatalf("Count = %d, want 3", snap.Count)
	}
	if snap.Min != 10*time.Microsecond || snap.Max != 30*time.Microsecond {
		t.Fatalf("min/max = %v/%v", snap.Min, snap.Max)
	}
	if snap.Avg != 20*time.Microsecond {
		t.Fatalf("avg = %v, want 20µs", snap.Avg)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.IncApplied()
	m.ObserveSnapshot(time.Millisecond)
	if snap := m.Snapshot(); snap.RecordsApplied != 0 {
		t.Fatalf("nil metrics snapshot should be zero: %+v", snap)
	}
}
