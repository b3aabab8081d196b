package ledger

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by backends whose storage handle is missing
var ErrNotConnected = errors.New("ledger storage not connected")

// Ledger is the append-only set of course URLs that were scraped
// successfully. Implementations normalize URLs on both insert and lookup.
type Ledger interface {
	Contains(ctx context.Context, rawURL string) (bool, error)
	Append(ctx context.Context, rawURL string) error
}
