// Package market holds the kline data model shared by the exchange client,
// the indicator pipeline, and the backtest feed.
package market

import "time"

// Candle represents OHLC (Open, High, Low, Close) candlestick data for one
// interval.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Interval is a kline interval in exchange notation ("1m", "1h", "1d").
type Interval string

const (
	M1  Interval = "1m"
	M5  Interval = "5m"
	M15 Interval = "15m"
	H1  Interval = "1h"
	H4  Interval = "4h"
	D1  Interval = "1d"
)

// Duration converts the interval to a time.Duration. Unknown intervals
// return 0.
func (i Interval) Duration() time.Duration {
	switch i {
	case M1:
		return time.Minute
	case M5:
		return 5 * time.Minute
	case M15:
		return 15 * time.Minute
	case H1:
		return time.Hour
	case H4:
		return 4 * time.Hour
	case D1:
		return 24 * time.Hour
	}
	return 0
}
