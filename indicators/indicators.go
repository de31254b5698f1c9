// Package indicators provides streaming technical indicators computed over
// closed candles. Indicators are deterministic and safe to use in live,
// replay, and backtest runs.
package indicators

import "margintrader/market"

// Indicator computes a single streaming value from candles.
type Indicator interface {
	// Name returns a stable identifier like "EMA(20)" or "MACD(12,26,9)".
	Name() string

	// Warmup returns how many updates are needed before Ready() can be true.
	Warmup() int

	// Reset clears all internal state.
	Reset()

	// Update consumes the next *closed* candle and updates internal state.
	Update(c market.Candle)

	// Ready reports whether Value() is meaningful (warmup completed).
	Ready() bool

	// Value returns the current indicator value. Callers should always
	// check Ready() first.
	Value() float64
}
