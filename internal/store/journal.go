package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/labledger/internal/ledger"
)

// JournalEntry is one row of record_journal.
type JournalEntry struct {
	Seq    int64
	Kind   ledger.EventKind
	Key    ledger.Key
	Record ledger.Record
}

// Event returns the ledger event the entry corresponds to.
func (e JournalEntry) Event() ledger.Event {
	p := ledger.Payload{Tester: e.Record.Tester(), Key: e.Key, Positive: e.Record.Positive()}
	if e.Kind == ledger.KindUpdated {
		return ledger.Updated{Payload: p}
	}
	return ledger.Published{Payload: p}
}

// Journal returns journal entries with seq > afterSeq, ordered by seq ASC.
// Returns an empty slice (not nil) when there are none.
func (s *Store) Journal(ctx context.Context, afterSeq int64) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, key, positive, tester
		FROM record_journal
		WHERE seq > ?
		ORDER BY seq ASC
	`, afterSeq)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()
	return scanJournal(rows)
}

// History returns every journal entry for key, ordered by seq ASC.
func (s *Store) History(ctx context.Context, key ledger.Key) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, key, positive, tester
		FROM record_journal
		WHERE key = ?
		ORDER BY seq ASC
	`, key.String())
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanJournal(rows)
}

// LastSeq returns the highest journal seq, or 0 for an empty journal.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM record_journal`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanJournal(rows *sql.Rows) ([]JournalEntry, error) {
	entries := []JournalEntry{}
	for rows.Next() {
		var (
			e        JournalEntry
			kind     string
			keyHex   string
			positive bool
			tester   []byte
		)
		if err := rows.Scan(&e.Seq, &kind, &keyHex, &positive, &tester); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		key, err := ledger.ParseKey(keyHex)
		if err != nil {
			return nil, fmt.Errorf("journal seq %d: %w", e.Seq, err)
		}
		e.Kind = ledger.EventKind(kind)
		e.Key = key
		e.Record = ledger.NewRecord(positive, tester)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}
