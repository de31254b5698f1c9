// Package strategies contains trading strategies that turn closed candles
// into directional signals. Strategies hold no position state; the driving
// agent decides how a signal maps onto the current ledger position.
package strategies

import "margintrader/market"

// Signal is a strategy's directional opinion for the latest closed candle.
type Signal int

const (
	// Hold means no opinion; keep the current position.
	Hold Signal = iota
	// Long means momentum has turned up.
	Long
	// Short means momentum has turned down.
	Short
)

func (s Signal) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return "HOLD"
}

// Strategy consumes closed candles one at a time and emits signals.
type Strategy interface {
	// Name returns a stable identifier for journaling and reports.
	Name() string

	// Warmup returns how many candles are needed before signals can fire.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// OnCandle consumes the next closed candle and returns a signal.
	// Hold is returned during warmup and when nothing crossed.
	OnCandle(c market.Candle) Signal
}
