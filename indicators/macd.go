package indicators

import (
	"fmt"

	"margintrader/market"
)

// MACD is a streaming Moving Average Convergence Divergence indicator.
// The MACD line is fast EMA minus slow EMA; the signal line is an EMA of
// the MACD line; the histogram is their difference. Value() returns the
// histogram, which is what the crossover strategies key on.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

// NewMACD creates a MACD indicator with the given fast, slow, and signal
// periods. The conventional parameters are 12, 26, 9.
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string {
	return fmt.Sprintf("MACD(%d,%d,%d)", m.fast.period, m.slow.period, m.signal.period)
}

func (m *MACD) Warmup() int {
	// The signal EMA sees its first input on the same update that makes
	// the slow EMA ready.
	return m.slow.period + m.signal.period - 1
}

func (m *MACD) Reset() {
	m.fast.Reset()
	m.slow.Reset()
	m.signal.Reset()
}

func (m *MACD) Update(c market.Candle) {
	m.fast.Update(c)
	m.slow.Update(c)

	// The signal line only starts once the slow EMA produces MACD values.
	if m.fast.Ready() && m.slow.Ready() {
		m.signal.update(m.fast.Value() - m.slow.Value())
	}
}

func (m *MACD) Ready() bool {
	return m.signal.Ready()
}

// Line returns the current MACD line (fast EMA - slow EMA).
func (m *MACD) Line() float64 {
	if !m.fast.Ready() || !m.slow.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

// Signal returns the current signal line value.
func (m *MACD) Signal() float64 {
	return m.signal.Value()
}

// Value returns the MACD histogram (line minus signal).
func (m *MACD) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.Line() - m.signal.Value()
}
