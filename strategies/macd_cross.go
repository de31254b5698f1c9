package strategies

import (
	"fmt"

	"margintrader/indicators"
	"margintrader/market"
)

// MACDCross signals on zero crossings of the MACD histogram:
// Long when the histogram turns positive, Short when it turns negative.
// A signal fires only on the crossing candle, never while the histogram
// stays on one side.
type MACDCross struct {
	macd *indicators.MACD

	prevHist float64
	havePrev bool
}

// MACDCrossConfig holds the EMA periods. Zero values fall back to the
// conventional 12/26/9.
type MACDCrossConfig struct {
	FastPeriod   int `json:"fast-period" yaml:"fast-period"`
	SlowPeriod   int `json:"slow-period" yaml:"slow-period"`
	SignalPeriod int `json:"signal-period" yaml:"signal-period"`
}

// NewMACDCross creates the strategy from cfg, applying 12/26/9 defaults.
func NewMACDCross(cfg MACDCrossConfig) *MACDCross {
	if cfg.FastPeriod == 0 {
		cfg.FastPeriod = 12
	}
	if cfg.SlowPeriod == 0 {
		cfg.SlowPeriod = 26
	}
	if cfg.SignalPeriod == 0 {
		cfg.SignalPeriod = 9
	}

	return &MACDCross{
		macd: indicators.NewMACD(cfg.FastPeriod, cfg.SlowPeriod, cfg.SignalPeriod),
	}
}

func (s *MACDCross) Name() string {
	return fmt.Sprintf("macd-cross[%s]", s.macd.Name())
}

func (s *MACDCross) Warmup() int {
	// one extra candle: a crossing needs a previous histogram value
	return s.macd.Warmup() + 1
}

func (s *MACDCross) Reset() {
	s.macd.Reset()
	s.prevHist = 0
	s.havePrev = false
}

func (s *MACDCross) OnCandle(c market.Candle) Signal {
	s.macd.Update(c)
	if !s.macd.Ready() {
		return Hold
	}

	hist := s.macd.Value()
	defer func() {
		s.prevHist = hist
		s.havePrev = true
	}()

	if !s.havePrev {
		return Hold
	}

	switch {
	case s.prevHist < 0 && hist > 0:
		return Long
	case s.prevHist > 0 && hist < 0:
		return Short
	}
	return Hold
}
