// Package notify delivers trade and report messages to external channels.
package notify

import (
	"context"
	"log"
)

// Notifier is the interface all notification backends satisfy.
type Notifier interface {
	// Send delivers a message. Returns an error if delivery fails;
	// callers decide whether a failed notification aborts anything.
	Send(ctx context.Context, msg string) error
}

// Log writes messages to the standard logger. Useful for development and
// backtests where no chat channel is configured.
type Log struct{}

func (Log) Send(_ context.Context, msg string) error {
	log.Printf("[notify] %s", msg)
	return nil
}
