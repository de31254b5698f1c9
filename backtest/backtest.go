// Package backtest replays historical candles through a strategy and a
// trading agent, then reports how the strategy would have performed.
package backtest

import (
	"context"
	"fmt"
	"time"

	"margintrader/agent"
	"margintrader/market"
	"margintrader/strategies"
)

// CandleFeed yields candles one at a time, in chronological order.
// Implementations should be deterministic and return (ok=false, err=nil) at EOF.
type CandleFeed interface {
	Next() (c market.Candle, ok bool, err error)
	Close() error
}

// SliceFeed replays an in-memory candle slice.
type SliceFeed struct {
	candles []market.Candle
	index   int
}

func NewSliceFeed(candles []market.Candle) *SliceFeed {
	return &SliceFeed{candles: candles}
}

func (f *SliceFeed) Next() (market.Candle, bool, error) {
	if f.index >= len(f.candles) {
		return market.Candle{}, false, nil
	}
	c := f.candles[f.index]
	f.index++
	return c, true, nil
}

func (f *SliceFeed) Close() error { return nil }

// CSVFeed replays a candle CSV written by market.SaveCSV.
type CSVFeed struct {
	*SliceFeed
}

func NewCSVFeed(path string) (*CSVFeed, error) {
	candles, err := market.LoadCSV(path)
	if err != nil {
		return nil, err
	}
	return &CSVFeed{SliceFeed: NewSliceFeed(candles)}, nil
}

// RunnerOptions controls how the runner behaves.
type RunnerOptions struct {
	// If true, close any open position at the last candle's close.
	CloseEnd bool
}

// Result is the outcome of one backtest run.
type Result struct {
	agent.Report

	Candles int
	Start   time.Time
	End     time.Time
}

// Runner drives an agent forward using a feed and strategy.
type Runner struct {
	Agent    *agent.Agent
	Feed     CandleFeed
	Strategy strategies.Strategy
	Options  RunnerOptions
}

// Run executes the backtest loop:
//  1. read next candle
//  2. strategy.OnCandle(candle)
//  3. agent.OnSignal(signal, candle close)
//
// The report covers the whole replayed range.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Agent == nil {
		return Result{}, fmt.Errorf("backtest: Agent is required")
	}
	if r.Feed == nil {
		return Result{}, fmt.Errorf("backtest: Feed is required")
	}
	if r.Strategy == nil {
		return Result{}, fmt.Errorf("backtest: Strategy is required")
	}
	defer r.Feed.Close()

	r.Strategy.Reset()

	var (
		first, last market.Candle
		count       int
	)

	for {
		c, ok, err := r.Feed.Next()
		if err != nil {
			return Result{}, err
		}
		if !ok {
			break
		}

		if count == 0 {
			first = c
		}
		last = c
		count++

		sig := r.Strategy.OnCandle(c)
		if err := r.Agent.OnSignal(ctx, sig, c.Close); err != nil {
			return Result{}, err
		}
	}

	if count == 0 {
		return Result{}, fmt.Errorf("backtest: feed produced no candles")
	}

	if r.Options.CloseEnd && r.Agent.Ledger().Position() != 0 {
		if _, err := r.Agent.ClosePosition(ctx, last.Close); err != nil {
			return Result{}, err
		}
	}

	report, err := r.Agent.Analyze(ctx, []market.Candle{first, last})
	if err != nil {
		return Result{}, err
	}

	return Result{
		Report:  report,
		Candles: count,
		Start:   first.Time,
		End:     last.Time,
	}, nil
}
