package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/roach88/labledger/internal/ledger"
)

// Mismatch describes one disagreement found by Replay.
type Mismatch struct {
	Key    ledger.Key
	Seq    int64 // journal seq that exposed the problem, 0 for table checks
	Reason string
}

func (m Mismatch) String() string {
	if m.Seq > 0 {
		return fmt.Sprintf("%s at seq %d: %s", m.Key, m.Seq, m.Reason)
	}
	return fmt.Sprintf("%s: %s", m.Key, m.Reason)
}

// ReplayReport summarizes a Replay run.
type ReplayReport struct {
	Entries    int
	Records    int
	Published  int
	Updated    int
	Mismatches []Mismatch
}

// OK reports whether the journal and the records table agree.
func (r ReplayReport) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay folds the journal from the beginning and compares the result with
// the records table. It also checks the transition order of each key: the
// first entry must be published and every later one updated.
//
// Mismatches are reported in key order; Replay returns an error only when
// the database cannot be read.
func (s *Store) Replay(ctx context.Context) (ReplayReport, error) {
	var report ReplayReport

	entries, err := s.Journal(ctx, 0)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}
	report.Entries = len(entries)

	folded := make(map[ledger.Key]ledger.Record)
	for _, e := range entries {
		_, seen := folded[e.Key]
		switch e.Kind {
		case ledger.KindPublished:
			report.Published++
			if seen {
				report.Mismatches = append(report.Mismatches, Mismatch{Key: e.Key, Seq: e.Seq, Reason: "published twice"})
			}
		case ledger.KindUpdated:
			report.Updated++
			if !seen {
				report.Mismatches = append(report.Mismatches, Mismatch{Key: e.Key, Seq: e.Seq, Reason: "updated before published"})
			}
		default:
			report.Mismatches = append(report.Mismatches, Mismatch{Key: e.Key, Seq: e.Seq, Reason: fmt.Sprintf("unknown kind %q", e.Kind)})
		}
		folded[e.Key] = e.Record
	}

	current, err := s.all(ctx)
	if err != nil {
		return report, fmt.Errorf("replay: %w", err)
	}
	report.Records = len(current)

	var tableChecks []Mismatch
	for key, rec := range current {
		want, ok := folded[key]
		switch {
		case !ok:
			tableChecks = append(tableChecks, Mismatch{Key: key, Reason: "record has no journal entry"})
		case !want.Equal(rec):
			tableChecks = append(tableChecks, Mismatch{Key: key, Reason: "record differs from journal"})
		}
	}
	for key := range folded {
		if _, ok := current[key]; !ok {
			tableChecks = append(tableChecks, Mismatch{Key: key, Reason: "journaled key missing from records"})
		}
	}
	sort.Slice(tableChecks, func(i, j int) bool {
		return tableChecks[i].Key.String() < tableChecks[j].Key.String()
	})
	report.Mismatches = append(report.Mismatches, tableChecks...)

	return report, nil
}

func (s *Store) all(ctx context.Context) (map[ledger.Key]ledger.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, positive, tester FROM records`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	out := make(map[ledger.Key]ledger.Record)
	for rows.Next() {
		var (
			keyHex   string
			positive bool
			tester   []byte
		)
		if err := rows.Scan(&keyHex, &positive, &tester); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		key, err := ledger.ParseKey(keyHex)
		if err != nil {
			return nil, err
		}
		out[key] = ledger.NewRecord(positive, tester)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}
