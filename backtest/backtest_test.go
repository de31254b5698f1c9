package backtest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"margintrader/agent"
	"margintrader/ledger"
	"margintrader/market"
	"margintrader/strategies"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// errorFeed returns an error on Next()
type errorFeed struct{}

func (e *errorFeed) Next() (market.Candle, bool, error) {
	return market.Candle{}, false, errors.New("mock error")
}

func (e *errorFeed) Close() error { return nil }

// scriptedStrategy emits a fixed signal sequence, one per candle.
type scriptedStrategy struct {
	signals []strategies.Signal
	index   int
	resets  int
}

func (s *scriptedStrategy) Name() string { return "scripted" }
func (s *scriptedStrategy) Warmup() int  { return 0 }

func (s *scriptedStrategy) Reset() {
	s.index = 0
	s.resets++
}

func (s *scriptedStrategy) OnCandle(market.Candle) strategies.Signal {
	if s.index >= len(s.signals) {
		return strategies.Hold
	}
	sig := s.signals[s.index]
	s.index++
	return sig
}

func testCandles(closes ...float64) []market.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			Time:  base.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c,
			Low:   c,
			Close: c,
		}
	}
	return out
}

func newTestAgent() *agent.Agent {
	return agent.New(ledger.New(100, 0.001, 2, 3), nil, nil, nil, "BTCUSDT")
}

func TestRunner_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing agent", func(t *testing.T) {
		t.Parallel()

		r := &Runner{Feed: NewSliceFeed(nil), Strategy: &scriptedStrategy{}}
		_, err := r.Run(ctx)
		assert.ErrorContains(t, err, "Agent is required")
	})

	t.Run("missing feed", func(t *testing.T) {
		t.Parallel()

		r := &Runner{Agent: newTestAgent(), Strategy: &scriptedStrategy{}}
		_, err := r.Run(ctx)
		assert.ErrorContains(t, err, "Feed is required")
	})

	t.Run("missing strategy", func(t *testing.T) {
		t.Parallel()

		r := &Runner{Agent: newTestAgent(), Feed: NewSliceFeed(nil)}
		_, err := r.Run(ctx)
		assert.ErrorContains(t, err, "Strategy is required")
	})

	t.Run("empty feed", func(t *testing.T) {
		t.Parallel()

		r := &Runner{Agent: newTestAgent(), Feed: NewSliceFeed(nil), Strategy: &scriptedStrategy{}}
		_, err := r.Run(ctx)
		assert.ErrorContains(t, err, "no candles")
	})

	t.Run("feed error", func(t *testing.T) {
		t.Parallel()

		r := &Runner{Agent: newTestAgent(), Feed: &errorFeed{}, Strategy: &scriptedStrategy{}}
		_, err := r.Run(ctx)
		assert.ErrorContains(t, err, "mock error")
	})
}

func TestRunner_ProfitableRoundTrip(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{signals: []strategies.Signal{
		strategies.Long, strategies.Hold, strategies.Short,
	}}
	a := newTestAgent()
	r := &Runner{
		Agent:    a,
		Feed:     NewSliceFeed(testCandles(100, 105, 110)),
		Strategy: strat,
		Options:  RunnerOptions{CloseEnd: true},
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, strat.resets)
	assert.Equal(t, 3, res.Candles)
	assert.Equal(t, testCandles(100)[0].Time, res.Start)
	assert.True(t, res.End.After(res.Start))

	// long opened at 100, reversed to short at 110, short closed flat at 110
	assert.Equal(t, 2, res.Trades)
	assert.Equal(t, 1, res.WinTrades)
	assert.InDelta(t, 0.1, res.OriginIncreaseRate, 1e-12)
	assert.Greater(t, res.FinalCapital, 100.0)

	// CloseEnd left nothing open and analysis reset the cycle
	assert.Zero(t, a.Ledger().Position())
	assert.Equal(t, a.Ledger().Capital(), a.Ledger().InitialCapital())
}

func TestRunner_NoCloseEndKeepsPosition(t *testing.T) {
	t.Parallel()

	strat := &scriptedStrategy{signals: []strategies.Signal{strategies.Long}}
	a := newTestAgent()
	r := &Runner{
		Agent:    a,
		Feed:     NewSliceFeed(testCandles(100, 110)),
		Strategy: strat,
	}

	res, err := r.Run(context.Background())
	require.NoError(t, err)

	// the position rides past the end of the data, so no trade completed
	assert.Positive(t, a.Ledger().Position())
	assert.Zero(t, res.Trades)
}

func TestCSVFeed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "btcusdt.csv")
	candles := testCandles(100, 105, 110)
	require.NoError(t, market.SaveCSV(path, candles))

	feed, err := NewCSVFeed(path)
	require.NoError(t, err)
	defer feed.Close()

	var got []market.Candle
	for {
		c, ok, err := feed.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got = append(got, c)
	}
	assert.Equal(t, candles, got)
}

func TestCSVFeed_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := NewCSVFeed(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
