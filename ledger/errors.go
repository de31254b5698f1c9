package ledger

import "errors"

// Sentinel errors for ledger precondition violations. None of these are
// transient: they indicate a caller-state bug, not something to retry.
var (
	// ErrAlreadyOpen is returned when an open is attempted while a
	// position already exists. One position at a time, no averaging in.
	ErrAlreadyOpen = errors.New("ledger: position already open")

	// ErrNoOpenPosition is returned when a close is attempted on a flat
	// ledger.
	ErrNoOpenPosition = errors.New("ledger: no open position to close")

	// ErrInsufficientCapital is returned when margin cost plus opening fee
	// exceeds the available capital.
	ErrInsufficientCapital = errors.New("ledger: insufficient available capital")

	// ErrInvalidAction is returned for any action other than Open or Close.
	ErrInvalidAction = errors.New("ledger: invalid action")

	// ErrInvalidPrice is returned when a non-positive price is supplied to
	// position sizing.
	ErrInvalidPrice = errors.New("ledger: price must be positive")
)
