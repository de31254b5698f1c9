// Package exchange provides the external market collaborator: historical
// klines, instrument metadata, and order execution. The ledger never talks
// to an exchange directly; agents feed prices in and orders out through
// this boundary.
package exchange

import (
	"context"

	"margintrader/market"
)

// Side is the order direction in exchange notation.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Order is the exchange's view of a filled market order.
type Order struct {
	ID       int64
	Symbol   string
	Side     Side
	Quantity float64
	Status   string
}

// Exchange is the interface all exchange implementations satisfy.
type Exchange interface {
	// SymbolPrecision returns the number of decimal places a tradable
	// quantity may have for the symbol.
	SymbolPrecision(ctx context.Context, symbol string) (int, error)

	// Klines fetches historical candles for the trailing number of days
	// at the given interval, oldest first.
	Klines(ctx context.Context, symbol string, interval market.Interval, days int) ([]market.Candle, error)

	// CreateMarketOrder places a market order for the given quantity.
	CreateMarketOrder(ctx context.Context, symbol string, side Side, quantity float64) (Order, error)

	// SetLeverage sets the leverage multiplier for the symbol.
	SetLeverage(ctx context.Context, symbol string, leverage int) error

	// SetIsolatedMargin switches the symbol to isolated margin mode.
	SetIsolatedMargin(ctx context.Context, symbol string) error
}
