// Package agent drives the position ledger for one instrument: it sizes
// and executes opens and closes, mirrors fills to the exchange, journals
// every trade, and notifies the configured channel. The ledger does the
// accounting; the agent is the glue around it.
package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"margintrader/exchange"
	"margintrader/journal"
	"margintrader/ledger"
	"margintrader/notify"
	"margintrader/pkg/id"
	"margintrader/strategies"
)

// Agent manages trading operations for a single symbol. It is not safe
// for concurrent use; drive it from one loop, the way the ledger expects.
type Agent struct {
	ledger   *ledger.Ledger
	exch     exchange.Exchange // nil in backtests: no orders leave the process
	notifier notify.Notifier
	journal  journal.Journal
	symbol   string
	logger   *log.Logger

	openTradeID string
	profits     []journal.ProfitRecord // current report cycle
}

// New creates an agent around led. exch may be nil for simulated runs;
// notifier and jrnl may be nil and default to log output and no journal.
func New(led *ledger.Ledger, exch exchange.Exchange, notifier notify.Notifier, jrnl journal.Journal, symbol string) *Agent {
	if notifier == nil {
		notifier = notify.Log{}
	}
	if jrnl == nil {
		jrnl = journal.Nop{}
	}
	return &Agent{
		ledger:   led,
		exch:     exch,
		notifier: notifier,
		journal:  jrnl,
		symbol:   symbol,
		logger:   log.New(log.Writer(), fmt.Sprintf("[%s] ", symbol), log.LstdFlags),
	}
}

// Ledger exposes the underlying ledger for reporting callers.
func (a *Agent) Ledger() *ledger.Ledger { return a.ledger }

// Symbol returns the traded instrument.
func (a *Agent) Symbol() string { return a.symbol }

// Setup applies the ledger's leverage and isolated margin mode on the
// exchange. Call once before live trading; backtests skip it.
func (a *Agent) Setup(ctx context.Context) error {
	if a.exch == nil {
		return nil
	}
	if err := a.exch.SetLeverage(ctx, a.symbol, int(a.ledger.Leverage())); err != nil {
		return err
	}
	return a.exch.SetIsolatedMargin(ctx, a.symbol)
}

// OpenLong opens a long position at price. With size nil the whole
// available capital is used, otherwise the requested size is clamped to
// what capital affords.
func (a *Agent) OpenLong(ctx context.Context, price float64, size *float64) error {
	return a.open(ctx, price, size, exchange.Buy)
}

// OpenShort opens a short position at price, sized like OpenLong.
func (a *Agent) OpenShort(ctx context.Context, price float64, size *float64) error {
	return a.open(ctx, price, size, exchange.Sell)
}

func (a *Agent) open(ctx context.Context, price float64, size *float64, side exchange.Side) error {
	quantity, err := a.ledger.CalculatePosition(price, size)
	if err != nil {
		return err
	}

	delta := quantity
	if side == exchange.Sell {
		delta = -quantity
	}

	if _, err := a.ledger.UpdateBalance(delta, price, ledger.Open); err != nil {
		return err
	}

	if a.exch != nil {
		if _, err := a.exch.CreateMarketOrder(ctx, a.symbol, side, quantity); err != nil {
			// The ledger committed but the exchange refused; surface the
			// mismatch loudly, the operator has to reconcile.
			a.logger.Printf("ORDER FAILED after ledger open: %v", err)
			return fmt.Errorf("market order after open: %w", err)
		}
	}

	a.openTradeID = id.New()

	a.journal.RecordFill(journal.FillRecord{
		TradeID: a.openTradeID,
		Symbol:  a.symbol,
		Type:    "open",
		Side:    string(side),
		Price:   price,
		Size:    quantity,
		Time:    time.Now().UTC(),
	})

	direction := "LONG"
	if side == exchange.Sell {
		direction = "SHORT"
	}
	a.logger.Printf("Opened %s | Price: %v | Size: %.6f", direction, price, quantity)
	a.notifier.Send(ctx, fmt.Sprintf("Opened %s %s\nPrice: %v\nSize: %.6f", direction, a.symbol, price, quantity))

	return nil
}

// ClosePosition closes the current position at price and returns the
// realized gain. The returned gain is pre-fee (the ledger's convention);
// capital already reflects the fee.
func (a *Agent) ClosePosition(ctx context.Context, price float64) (float64, error) {
	position := a.ledger.Position()

	side := exchange.Sell
	direction := "LONG"
	if position < 0 {
		side = exchange.Buy
		direction = "SHORT"
	}

	gain, err := a.ledger.UpdateBalance(-position, price, ledger.Close)
	if err != nil {
		return 0, err
	}

	quantity := position
	if quantity < 0 {
		quantity = -quantity
	}

	if a.exch != nil {
		if _, err := a.exch.CreateMarketOrder(ctx, a.symbol, side, quantity); err != nil {
			a.logger.Printf("ORDER FAILED after ledger close: %v", err)
			return gain, fmt.Errorf("market order after close: %w", err)
		}
	}

	now := time.Now().UTC()
	a.journal.RecordFill(journal.FillRecord{
		TradeID: a.openTradeID,
		Symbol:  a.symbol,
		Type:    "close",
		Side:    string(side),
		Price:   price,
		Size:    quantity,
		Time:    now,
	})

	profit := journal.ProfitRecord{
		TradeID: a.openTradeID,
		Symbol:  a.symbol,
		Side:    direction,
		Gain:    gain,
		Time:    now,
	}
	a.journal.RecordProfit(profit)
	a.profits = append(a.profits, profit)
	a.openTradeID = ""

	a.logger.Printf("Closed %s | Price: %v | Gain: %.2f", direction, price, gain)
	a.notifier.Send(ctx, fmt.Sprintf("Closed %s %s\nPrice: %v\nGain: %.2f", direction, a.symbol, price, gain))

	return gain, nil
}

// Status reports the ledger status at the given price.
func (a *Agent) Status(price float64) ledger.Status {
	return a.ledger.Status(price)
}

// OnSignal maps a strategy signal onto the current position: an opposite
// signal closes first, and a signal while flat opens in that direction.
// One signal therefore reverses an opposing position across two fills.
func (a *Agent) OnSignal(ctx context.Context, sig strategies.Signal, price float64) error {
	switch sig {
	case strategies.Long:
		if a.ledger.Position() < 0 {
			if _, err := a.ClosePosition(ctx, price); err != nil {
				return err
			}
		}
		if a.ledger.Position() == 0 {
			return a.OpenLong(ctx, price, nil)
		}
	case strategies.Short:
		if a.ledger.Position() > 0 {
			if _, err := a.ClosePosition(ctx, price); err != nil {
				return err
			}
		}
		if a.ledger.Position() == 0 {
			return a.OpenShort(ctx, price, nil)
		}
	}
	return nil
}
