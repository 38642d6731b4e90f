package redisstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/labledger/internal/ledger"
)

var _ ledger.Store = (*Client)(nil)

// Client is a ledger.Store backed by Redis hashes.
// All keys and channels are namespaced with the client's namespace.
// The client is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	namespace string
}

// NewClient creates a client for namespace. Returns an error if namespace is empty.
func NewClient(opts *redis.Options, namespace string) (*Client, error) {
	if namespace == "" {
		return nil, fmt.Errorf("namespace cannot be empty")
	}
	return &Client{
		rdb:       redis.NewClient(opts),
		namespace: namespace,
	}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Exists reports whether key holds a record.
func (c *Client) Exists(ctx context.Context, key ledger.Key) (bool, error) {
	n, err := c.rdb.Exists(ctx, RecordKey(c.namespace, key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check record existence: %w", err)
	}
	return n > 0, nil
}

// Get returns the record at key, or ledger.ErrNoRecord.
func (c *Client) Get(ctx context.Context, key ledger.Key) (ledger.Record, error) {
	hash, err := c.rdb.HGetAll(ctx, RecordKey(c.namespace, key)).Result()
	if err != nil {
		return ledger.Record{}, fmt.Errorf("failed to read record from Redis: %w", err)
	}
	// HGetAll returns an empty map for missing keys
	if len(hash) == 0 {
		return ledger.Record{}, ledger.ErrNoRecord
	}
	rec, err := HashToRecord(hash)
	if err != nil {
		return ledger.Record{}, fmt.Errorf("failed to deserialize record %s: %w", key, err)
	}
	return rec, nil
}

// Insert writes rec at key. The write is unconditional; the handler owns
// the existence check.
func (c *Client) Insert(ctx context.Context, key ledger.Key, rec ledger.Record) error {
	if err := c.write(ctx, key, rec); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Overwrite replaces the record at key.
func (c *Client) Overwrite(ctx context.Context, key ledger.Key, rec ledger.Record) error {
	if err := c.write(ctx, key, rec); err != nil {
		return fmt.Errorf("failed to overwrite record: %w", err)
	}
	return nil
}

// write sets both fields in one HSET so a reader never sees half a record.
func (c *Client) write(ctx context.Context, key ledger.Key, rec ledger.Record) error {
	return c.rdb.HSet(ctx, RecordKey(c.namespace, key), RecordToHash(rec)).Err()
}

// Sink returns a ledger.Sink that publishes notices on this client's
// namespace. Delivery failures are logged through logger.
func (c *Client) Sink(logger *slog.Logger) *Sink {
	return NewSink(c.rdb, c.namespace, logger)
}
