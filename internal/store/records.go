package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/labledger/internal/ledger"
)

// Exists reports whether key holds a record.
func (s *Store) Exists(ctx context.Context, key ledger.Key) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM records WHERE key = ?`, key.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// Get returns the record at key, or ledger.ErrNoRecord.
func (s *Store) Get(ctx context.Context, key ledger.Key) (ledger.Record, error) {
	var (
		positive bool
		tester   []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT positive, tester FROM records WHERE key = ?
	`, key.String()).Scan(&positive, &tester)
	if errors.Is(err, sql.ErrNoRows) {
		return ledger.Record{}, ledger.ErrNoRecord
	}
	if err != nil {
		return ledger.Record{}, fmt.Errorf("get record: %w", err)
	}
	return ledger.NewRecord(positive, tester), nil
}

// Insert writes rec at key. The write is unconditional; the handler owns
// the existence check. The journal entry kind follows the row's prior state.
func (s *Store) Insert(ctx context.Context, key ledger.Key, rec ledger.Record) error {
	if err := s.upsert(ctx, key, rec); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Overwrite replaces the record at key.
func (s *Store) Overwrite(ctx context.Context, key ledger.Key, rec ledger.Record) error {
	if err := s.upsert(ctx, key, rec); err != nil {
		return fmt.Errorf("overwrite record: %w", err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, key ledger.Key, rec ledger.Record) error {
	tester := rec.Tester()
	if tester == nil {
		tester = []byte{}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO records (key, positive, tester)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			positive = excluded.positive,
			tester = excluded.tester
	`, key.String(), rec.Positive(), tester)
	return err
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
