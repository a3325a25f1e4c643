package archive

import (
	"context"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/book"
	"main/internal/obs"
	"main/internal/router"
	"main/internal/schema"
)

// Archiver periodically sweeps all live books and persists their snapshots.
// Sweeps run outside the hot path; they only read books through snapshots.
type Archiver struct {
	dir      string
	interval time.Duration
	router   *router.Router
	sink     *PgSink
	metrics  *obs.Metrics
}

// New builds an archiver. dir may be empty to skip file dumps; sink and
// metrics may be nil.
func New(r *router.Router, dir string, interval time.Duration, sink *PgSink, metrics *obs.Metrics) *Archiver {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Archiver{
		dir:      dir,
		interval: interval,
		router:   r,
		sink:     sink,
		metrics:  metrics,
	}
}

// Run sweeps on the configured interval until ctx is cancelled. A final
// sweep runs on the way out so shutdown never loses the latest state.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if n, err := a.Flush(); err != nil {
				logs.Errorf("archive final sweep, err: %+v", err)
			} else {
				logs.Infof("archive final sweep, books: %d", n)
			}
			return
		case <-ticker.C:
			if _, err := a.Flush(); err != nil {
				logs.Errorf("archive sweep, err: %+v", err)
			}
		}
	}
}

// Flush snapshots every live book once and persists the results. It returns
// the number of books archived.
func (a *Archiver) Flush() (int, error) {
	var (
		dumps []BookDump
		rows  []SnapshotRow
	)
	var sweepErr error
	a.router.Range(func(_ schema.SymbolKey, b *book.Book) bool {
		start := time.Now()
		snap := b.Snapshot()
		a.metrics.ObserveSnapshot(time.Since(start))
		dump := BuildDump(snap)
		dumps = append(dumps, dump)
		if a.sink != nil {
			row, err := RowFromDump(dump)
			if err != nil {
				sweepErr = err
				return false
			}
			rows = append(rows, row)
		}
		return true
	})
	if sweepErr != nil {
		return 0, sweepErr
	}

	if a.dir != "" {
		for _, dump := range dumps {
			if err := WriteDump(DumpPath(a.dir, dump.Symbol, dump.Timestamp), dump); err != nil {
				return 0, err
			}
		}
	}
	if a.sink != nil {
		if err := a.sink.Store(rows); err != nil {
			return 0, err
		}
	}
	return len(dumps), nil
}
