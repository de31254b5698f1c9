package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"margintrader/market"
)

// Report summarizes one analysis cycle.
type Report struct {
	Symbol       string
	FinalCapital float64
	// EarnRate is the strategy's return over the cycle's initial capital.
	EarnRate float64
	// OriginIncreaseRate is the buy-and-hold return of the instrument over
	// the same candles, for comparison.
	OriginIncreaseRate float64

	Trades     int
	WinTrades  int
	LossTrades int
	WinRate    float64
	// ProfitFactor is gross profit over gross loss; +Inf with no losses.
	ProfitFactor float64
	// RiskReward is average win over average loss; +Inf with no losses.
	RiskReward float64
	MaxWin     float64
	MaxLoss    float64
}

// String renders the report the way it is sent to the notification channel.
func (r Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "===== %s Strategy Report =====\n", r.Symbol)
	fmt.Fprintf(&b, "Final Capital: %.2f\n", r.FinalCapital)
	fmt.Fprintf(&b, "Earn Rate: %.2f%%\n", r.EarnRate*100)
	fmt.Fprintf(&b, "Origin Increase Rate: %.2f%%\n", r.OriginIncreaseRate*100)
	fmt.Fprintf(&b, "Win Trades: %d\n", r.WinTrades)
	fmt.Fprintf(&b, "Lose Trades: %d\n", r.LossTrades)
	fmt.Fprintf(&b, "Win Rate: %.2f%%\n", r.WinRate*100)
	fmt.Fprintf(&b, "Profit Factor: %.2f\n", r.ProfitFactor)
	fmt.Fprintf(&b, "Risk-Reward Ratio: %.2f\n", r.RiskReward)
	fmt.Fprintf(&b, "Max Win: %.2f\n", r.MaxWin)
	fmt.Fprintf(&b, "Max Loss: %.2f\n", r.MaxLoss)
	return b.String()
}

// Analyze summarizes the profits realized since the last cycle, sends the
// report to the notification channel, and starts a new cycle: the profit
// log clears and the ledger's initial capital resets to current capital.
//
// candles must cover the analyzed window; the last close values any open
// position and the first close anchors the buy-and-hold comparison.
func (a *Agent) Analyze(ctx context.Context, candles []market.Candle) (Report, error) {
	if len(candles) == 0 {
		return Report{}, fmt.Errorf("analyze: no candles")
	}

	if len(a.profits) == 0 {
		a.notifier.Send(ctx, fmt.Sprintf("%s: no trades to analyze", a.symbol))
		return Report{Symbol: a.symbol}, nil
	}

	firstClose := candles[0].Close
	lastClose := candles[len(candles)-1].Close

	var (
		winCount, lossCount   int
		winProfit, lossProfit float64
		maxWin, maxLoss       float64
	)
	for _, p := range a.profits {
		if p.Gain > 0 {
			winCount++
			winProfit += p.Gain
			if p.Gain > maxWin {
				maxWin = p.Gain
			}
		} else {
			lossCount++
			lossProfit += p.Gain
			if p.Gain < maxLoss {
				maxLoss = p.Gain
			}
		}
	}

	total := len(a.profits)
	capital := a.ledger.Status(lastClose).Capital
	initial := a.ledger.InitialCapital()

	profitFactor := math.Inf(1)
	if lossProfit < 0 {
		profitFactor = math.Abs(winProfit / lossProfit)
	}

	avgWin := 0.0
	if winCount > 0 {
		avgWin = winProfit / float64(winCount)
	}
	riskReward := math.Inf(1)
	if lossCount > 0 && lossProfit != 0 {
		avgLoss := lossProfit / float64(lossCount)
		riskReward = avgWin / math.Abs(avgLoss)
	}

	r := Report{
		Symbol:             a.symbol,
		FinalCapital:       capital,
		EarnRate:           (capital - initial) / initial,
		OriginIncreaseRate: (lastClose - firstClose) / firstClose,
		Trades:             total,
		WinTrades:          winCount,
		LossTrades:         lossCount,
		WinRate:            float64(winCount) / float64(total),
		ProfitFactor:       profitFactor,
		RiskReward:         riskReward,
		MaxWin:             maxWin,
		MaxLoss:            maxLoss,
	}

	a.notifier.Send(ctx, r.String())

	// new cycle
	a.profits = nil
	a.ledger.ResetCycle()

	return r, nil
}
