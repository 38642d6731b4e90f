package ledger

import (
	"context"
	"errors"
)

// ErrNoRecord is returned by Store.Get when the key is absent.
var ErrNoRecord = errors.New("ledger: no record")

// Store is the key to record mapping the handler mutates.
//
// Insert and Overwrite are unconditional writes: the store enforces no
// uniqueness and does not check prior presence. The handler owns those
// checks and calls the store from within a single transition.
type Store interface {
	Exists(ctx context.Context, key Key) (bool, error)
	Get(ctx context.Context, key Key) (Record, error)
	Insert(ctx context.Context, key Key, rec Record) error
	Overwrite(ctx context.Context, key Key, rec Record) error
}
