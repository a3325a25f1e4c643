// Package archive persists point-in-time book snapshots, either as JSON
// files on disk or as rows in PostgreSQL.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"main/internal/book"
)

// BookDump is the serialized form of one book snapshot.
type BookDump struct {
	Timestamp  int64        `json:"timestamp"`
	Symbol     string       `json:"symbol"`
	PriceScale int          `json:"priceScale"`
	BidSeq     uint64       `json:"bidSeq"`
	AskSeq     uint64       `json:"askSeq"`
	Bids       []LevelEntry `json:"bids"`
	Asks       []LevelEntry `json:"asks"`
}

// LevelEntry is a single ladder level entry.
type LevelEntry struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// BuildDump converts a snapshot into its serialized form.
func BuildDump(snap book.Snapshot) BookDump {
	bids := make([]LevelEntry, 0, snap.BidDepth)
	for i := uint32(0); i < snap.BidDepth; i++ {
		bids = append(bids, LevelEntry{
			Price: int64(snap.Bids[i].Price),
			Qty:   int64(snap.Bids[i].Qty),
		})
	}
	asks := make([]LevelEntry, 0, snap.AskDepth)
	for i := uint32(0); i < snap.AskDepth; i++ {
		asks = append(asks, LevelEntry{
			Price: int64(snap.Asks[i].Price),
			Qty:   int64(snap.Asks[i].Qty),
		})
	}
	return BookDump{
		Timestamp:  snap.Timestamp,
		Symbol:     snap.Symbol.String(),
		PriceScale: snap.PriceScale,
		BidSeq:     snap.BidSeq,
		AskSeq:     snap.AskSeq,
		Bids:       bids,
		Asks:       asks,
	}
}

// DumpPath returns the file path for a dump within dir.
func DumpPath(dir, symbol string, timestamp int64) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d.json", symbol, timestamp))
}

// WriteDump writes a dump to disk as JSON.
func WriteDump(path string, dump BookDump) error {
	data, err := json.MarshalIndent(dump, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadDump loads a dump from disk.
func ReadDump(path string) (BookDump, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BookDump{}, err
	}
	var dump BookDump
	if err := json.Unmarshal(data, &dump); err != nil {
		return BookDump{}, err
	}
	return dump, nil
}
