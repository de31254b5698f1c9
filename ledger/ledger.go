// Package ledger implements the capital and margin accounting for a
// leveraged single-instrument position. It tracks realized capital, capital
// locked as margin, and at most one open position, and reports realized and
// unrealized profit.
//
// The ledger is a strict financial state machine with two states, flat and
// open. All mutations go through UpdateBalance and are applied atomically:
// either the full open/close transition commits or nothing does.
//
// Money is float64 on purpose. The sizing and fee formulas below are the
// reference arithmetic for the rest of the system, and changing the numeric
// representation would change results that downstream reports depend on.
package ledger

import (
	"math"
	"sync"
)

// Action selects the UpdateBalance transition.
type Action int

const (
	// Open moves the ledger from flat to open.
	Open Action = iota + 1
	// Close moves the ledger from open to flat and realizes the gain.
	Close
)

func (a Action) String() string {
	switch a {
	case Open:
		return "open"
	case Close:
		return "close"
	}
	return "invalid"
}

// Status is a point-in-time view of the ledger at a given price.
// Capital includes the unrealized gain of the open position, if any,
// valued at that price with no closing fee applied.
type Status struct {
	Capital          float64
	Position         float64
	AvailableCapital float64
}

// Ledger holds the accounting state for a single instrument. Create one per
// instrument with New; never share an instance across instruments.
//
// Mutating calls are serialized behind an internal lock, so a ledger may be
// driven by a live price feed and a command channel in the same process.
// Read-only calls run concurrently with each other.
type Ledger struct {
	mu sync.RWMutex

	initialCapital   float64
	capital          float64
	availableCapital float64
	position         float64 // >0 long, <0 short, 0 flat

	// openPrice is non-nil exactly while a position is open. It is never
	// exposed outside the ledger; callers only see its effect through
	// realized and unrealized gain.
	openPrice *float64

	// Immutable configuration.
	feeRate   float64
	leverage  float64
	precision int
}

// New creates a Ledger with the given starting capital and configuration.
// feeRate is the proportional cost applied to notional value on both open
// and close. leverage multiplies buying power (1 disables it). precision is
// the number of decimal places a tradable quantity may have, normally taken
// from the exchange's instrument metadata.
func New(initialCapital, feeRate, leverage float64, precision int) *Ledger {
	return &Ledger{
		initialCapital:   initialCapital,
		capital:          initialCapital,
		availableCapital: initialCapital,
		feeRate:          feeRate,
		leverage:         leverage,
		precision:        precision,
	}
}

// CalculatePosition converts available buying power at the given price into
// a position size. With requested nil it returns the maximum affordable
// quantity, the size whose margin cost plus opening fee exactly exhausts
// available capital:
//
//	max = available * leverage / (price * (1 + feeRate*leverage))
//
// With requested set, the result is min(*requested, max). Either way the
// result is truncated to the instrument precision. Pure query, no side
// effects. Returns ErrInvalidPrice for a non-positive price.
func (l *Ledger) CalculatePosition(price float64, requested *float64) (float64, error) {
	if price <= 0 {
		return 0, ErrInvalidPrice
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	max := l.availableCapital * l.leverage / (price * (1 + l.feeRate*l.leverage))

	size := max
	if requested != nil && *requested < max {
		size = *requested
	}

	return Truncate(size, l.precision), nil
}

// UpdateBalance performs the open or close transition at the given price.
//
// Open: delta is the signed quantity (>0 long, <0 short). The opening fee
// is charged against capital and the fee plus margin cost is locked out of
// available capital. Returns 0.
//
// Close: the whole position is closed. Returns the realized gain
// position*(price-openPrice). Note the returned gain is before the closing
// fee, while capital already has the fee subtracted; callers logging profit
// from the returned value must not re-subtract the fee.
//
// On any error no state is mutated.
func (l *Ledger) UpdateBalance(delta, price float64, action Action) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch action {
	case Open:
		return 0, l.openLocked(delta, price)
	case Close:
		return l.closeLocked(price)
	}
	return 0, ErrInvalidAction
}

func (l *Ledger) openLocked(delta, price float64) error {
	if l.position != 0 {
		return ErrAlreadyOpen
	}

	fee := math.Abs(delta) * price * l.feeRate
	marginCost := math.Abs(delta) * price / l.leverage

	totalCost := marginCost + fee
	if totalCost > l.availableCapital {
		return ErrInsufficientCapital
	}

	// Commit. Everything below is the full transition.
	l.position = delta
	l.openPrice = &price
	l.capital -= fee
	l.availableCapital -= totalCost
	return nil
}

func (l *Ledger) closeLocked(price float64) (float64, error) {
	if l.position == 0 {
		return 0, ErrNoOpenPosition
	}

	fee := math.Abs(l.position) * price * l.feeRate
	gain := l.position * (price - *l.openPrice)

	l.capital += gain - fee
	l.availableCapital = l.capital
	l.position = 0
	l.openPrice = nil
	return gain, nil
}

// Status reports current capital including unrealized gain at the given
// price. It is a projection, not an execution: no closing fee is charged
// and no state changes. Safe to call concurrently with other readers.
func (l *Ledger) Status(price float64) Status {
	l.mu.RLock()
	defer l.mu.RUnlock()

	gain := 0.0
	if l.position != 0 {
		gain = l.position * (price - *l.openPrice)
	}

	return Status{
		Capital:          l.capital + gain,
		Position:         l.position,
		AvailableCapital: l.availableCapital,
	}
}

// ResetCycle starts a new reporting period by setting the initial capital
// to the current realized capital. Nothing else resets; an open position
// carries across cycles untouched.
func (l *Ledger) ResetCycle() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.initialCapital = l.capital
}

// Capital returns realized capital net of fees and realized gains. It does
// not include unrealized P&L; use Status for that.
func (l *Ledger) Capital() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.capital
}

// AvailableCapital returns the capital not currently locked as margin.
func (l *Ledger) AvailableCapital() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.availableCapital
}

// Position returns the signed held quantity: >0 long, <0 short, 0 flat.
func (l *Ledger) Position() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.position
}

// InitialCapital returns the capital at the start of the current reporting
// period.
func (l *Ledger) InitialCapital() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.initialCapital
}

// Leverage returns the configured leverage multiplier.
func (l *Ledger) Leverage() float64 { return l.leverage }

// Precision returns the configured quantity precision in decimal places.
func (l *Ledger) Precision() int { return l.precision }

// Truncate rounds value down to the given number of decimal places:
// floor(value * 10^precision) / 10^precision. It floors the scaled value,
// so a quantity is never rounded up past what capital can afford, and it is
// idempotent.
func Truncate(value float64, precision int) float64 {
	factor := math.Pow(10, float64(precision))
	return math.Floor(value*factor) / factor
}
