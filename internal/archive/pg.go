package archive

import (
	"encoding/json"

	"main/pkg/conn"
)

// SnapshotRow is the PostgreSQL row model for one archived book snapshot.
// Ladders are stored as JSON since depth varies per symbol.
type SnapshotRow struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Timestamp  int64  `gorm:"index"`
	Symbol     string `gorm:"index;size:16"`
	PriceScale int
	BidSeq     uint64
	AskSeq     uint64
	Bids       string `gorm:"type:jsonb"`
	Asks       string `gorm:"type:jsonb"`
}

// TableName fixes the table used by gorm.
func (SnapshotRow) TableName() string {
	return "book_snapshots"
}

// RowFromDump converts a dump into its row form.
func RowFromDump(dump BookDump) (SnapshotRow, error) {
	bids, err := json.Marshal(dump.Bids)
	if err != nil {
		return SnapshotRow{}, err
	}
	asks, err := json.Marshal(dump.Asks)
	if err != nil {
		return SnapshotRow{}, err
	}
	return SnapshotRow{
		Timestamp:  dump.Timestamp,
		Symbol:     dump.Symbol,
		PriceScale: dump.PriceScale,
		BidSeq:     dump.BidSeq,
		AskSeq:     dump.AskSeq,
		Bids:       string(bids),
		Asks:       string(asks),
	}, nil
}

// PgSink writes snapshot rows to PostgreSQL.
type PgSink struct {
	client *conn.Client
}

// NewPgSink connects to PostgreSQL and migrates the snapshot table.
func NewPgSink(dsn string) (*PgSink, error) {
	client, err := conn.New(conn.Option{ConnString: dsn, Silent: true})
	if err != nil {
		return nil, err
	}
	if err := client.DB().AutoMigrate(&SnapshotRow{}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &PgSink{client: client}, nil
}

// Store inserts a batch of rows.
func (s *PgSink) Store(rows []SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	return s.client.DB().Create(&rows).Error
}

// Close releases the connection pool.
func (s *PgSink) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
