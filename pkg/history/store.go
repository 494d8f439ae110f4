package history

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidExchange is returned by Append when a required field is empty.
var ErrInvalidExchange = errors.New("history: exchange missing required field")

// Store defines the interface for persisting and retrieving exchanges from a
// storage backend. Implementations must support concurrent independent reads
// and inserts keyed by sender; no cross-sender coordination is required since
// exchanges are insert-only.
type Store interface {
	// Append stores an exchange, assigning its ID and CreatedAt.
	// SenderID, InboundText, and OutboundText must be non-empty.
	Append(ctx context.Context, ex *Exchange) error

	// FetchRecent returns at most limit exchanges for the sender,
	// newest first.
	FetchRecent(ctx context.Context, senderID string, limit int) ([]*Exchange, error)

	// ClearAll removes every stored exchange and returns the removed count.
	// Administrative reset only; there is no per-record delete or TTL.
	ClearAll(ctx context.Context) (int64, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}

// validate checks the fields every exchange must carry at persistence time.
func validate(ex *Exchange) error {
	if ex == nil {
		return fmt.Errorf("%w: nil exchange", ErrInvalidExchange)
	}
	if ex.SenderID == "" {
		return fmt.Errorf("%w: sender_id", ErrInvalidExchange)
	}
	if ex.InboundText == "" {
		return fmt.Errorf("%w: inbound_text", ErrInvalidExchange)
	}
	if ex.OutboundText == "" {
		return fmt.Errorf("%w: outbound_text", ErrInvalidExchange)
	}
	return nil
}
