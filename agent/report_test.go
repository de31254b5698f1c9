package agent

import (
	"context"
	"math"
	"testing"
	"time"

	"margintrader/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candlesFromCloses(closes ...float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
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

func TestAnalyze_SingleWinningTrade(t *testing.T) {
	t.Parallel()

	a, _, _, notifier := newTestAgent(t)
	ctx := context.Background()

	require.NoError(t, a.OpenLong(ctx, 100, nil))
	_, err := a.ClosePosition(ctx, 110)
	require.NoError(t, err)

	r, err := a.Analyze(ctx, candlesFromCloses(100, 105, 110))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", r.Symbol)
	assert.InDelta(t, 119.54084, r.FinalCapital, 1e-9)
	assert.InDelta(t, 0.1954084, r.EarnRate, 1e-9)
	assert.InDelta(t, 0.1, r.OriginIncreaseRate, 1e-12)
	assert.Equal(t, 1, r.Trades)
	assert.Equal(t, 1, r.WinTrades)
	assert.Zero(t, r.LossTrades)
	assert.Equal(t, 1.0, r.WinRate)
	assert.True(t, math.IsInf(r.ProfitFactor, 1))
	assert.True(t, math.IsInf(r.RiskReward, 1))
	assert.InDelta(t, 19.96, r.MaxWin, 1e-9)
	assert.Zero(t, r.MaxLoss)

	// the report went out over the notification channel
	last := notifier.msgs[len(notifier.msgs)-1]
	assert.Contains(t, last, "Strategy Report")
	assert.Contains(t, last, "Final Capital: 119.54")
}

func TestAnalyze_MixedTrades(t *testing.T) {
	t.Parallel()

	a, _, _, _ := newTestAgent(t)
	ctx := context.Background()

	// win, then a smaller loss
	require.NoError(t, a.OpenLong(ctx, 100, nil))
	_, err := a.ClosePosition(ctx, 110)
	require.NoError(t, err)
	require.NoError(t, a.OpenLong(ctx, 110, nil))
	_, err = a.ClosePosition(ctx, 105)
	require.NoError(t, err)

	r, err := a.Analyze(ctx, candlesFromCloses(100, 110, 105))
	require.NoError(t, err)

	assert.Equal(t, 2, r.Trades)
	assert.Equal(t, 1, r.WinTrades)
	assert.Equal(t, 1, r.LossTrades)
	assert.Equal(t, 0.5, r.WinRate)
	assert.False(t, math.IsInf(r.ProfitFactor, 1))
	assert.Positive(t, r.ProfitFactor)
	assert.Positive(t, r.RiskReward)
	assert.Positive(t, r.MaxWin)
	assert.Negative(t, r.MaxLoss)
	assert.InDelta(t, r.MaxWin/-r.MaxLoss, r.RiskReward, 1e-12)
}

func TestAnalyze_ResetsCycle(t *testing.T) {
	t.Parallel()

	a, _, _, notifier := newTestAgent(t)
	ctx := context.Background()

	require.NoError(t, a.OpenLong(ctx, 100, nil))
	_, err := a.ClosePosition(ctx, 110)
	require.NoError(t, err)

	_, err = a.Analyze(ctx, candlesFromCloses(100, 110))
	require.NoError(t, err)

	// the next cycle measures against the compounded capital
	assert.Equal(t, a.Ledger().Capital(), a.Ledger().InitialCapital())

	// and its profit log starts empty
	r, err := a.Analyze(ctx, candlesFromCloses(110, 110))
	require.NoError(t, err)
	assert.Zero(t, r.Trades)
	assert.Contains(t, notifier.msgs[len(notifier.msgs)-1], "no trades to analyze")
}

func TestAnalyze_NoCandles(t *testing.T) {
	t.Parallel()

	a, _, _, _ := newTestAgent(t)
	_, err := a.Analyze(context.Background(), nil)
	assert.Error(t, err)
}

func TestAnalyze_ValuesOpenPositionAtLastClose(t *testing.T) {
	t.Parallel()

	a, _, _, _ := newTestAgent(t)
	ctx := context.Background()

	// a closed win plus a position still open at the cycle boundary
	require.NoError(t, a.OpenLong(ctx, 100, nil))
	_, err := a.ClosePosition(ctx, 110)
	require.NoError(t, err)
	require.NoError(t, a.OpenLong(ctx, 110, nil))

	r, err := a.Analyze(ctx, candlesFromCloses(100, 110, 120))
	require.NoError(t, err)

	want := a.Ledger().Status(120).Capital
	assert.Equal(t, want, r.FinalCapital)
	assert.Equal(t, 1, r.Trades)
}

func TestReport_String(t *testing.T) {
	t.Parallel()

	r := Report{
		Symbol:       "BTCUSDT",
		FinalCapital: 119.54,
		EarnRate:     0.1954,
		WinTrades:    1,
		WinRate:      1,
		ProfitFactor: math.Inf(1),
		RiskReward:   math.Inf(1),
		MaxWin:       19.96,
	}
	s := r.String()
	assert.Contains(t, s, "===== BTCUSDT Strategy Report =====")
	assert.Contains(t, s, "Earn Rate: 19.54%")
	assert.Contains(t, s, "Max Win: 19.96")
}
