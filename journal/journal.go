// Package journal persists trade fills and realized profits so reports can
// be rebuilt after the fact. Two backends exist: CSV files and SQLite.
package journal

import "time"

// FillRecord is one executed open or close.
type FillRecord struct {
	TradeID string // ULID, time-sortable
	Symbol  string
	Type    string // "open" or "close"
	Side    string // "BUY" or "SELL"
	Price   float64
	Size    float64 // absolute quantity
	Time    time.Time
}

// ProfitRecord is the realized gain of one closed position. Gain is the
// pre-fee realized gain as returned by the ledger's close.
type ProfitRecord struct {
	TradeID string
	Symbol  string
	Side    string // "LONG" or "SHORT"
	Gain    float64
	Time    time.Time
}

// Journal records fills and profits.
type Journal interface {
	RecordFill(FillRecord) error
	RecordProfit(ProfitRecord) error
	Close() error
}

// Nop discards all records. Used when journaling is disabled.
type Nop struct{}

func (Nop) RecordFill(FillRecord) error     { return nil }
func (Nop) RecordProfit(ProfitRecord) error { return nil }
func (Nop) Close() error                    { return nil }
