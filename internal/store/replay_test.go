package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labledger/internal/ledger"
)

func TestReplay_Consistent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	k1 := testKey(t, "patient-42", "C1")
	k2 := testKey(t, "patient-43", "C1")

	require.NoError(t, s.Insert(ctx, k1, ledger.NewRecord(true, []byte("lab-A"))))
	require.NoError(t, s.Insert(ctx, k2, ledger.NewRecord(true, []byte("lab-A"))))
	require.NoError(t, s.Overwrite(ctx, k1, ledger.NewRecord(false, []byte("lab-B"))))

	report, err := s.Replay(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), "mismatches: %v", report.Mismatches)
	assert.Equal(t, 3, report.Entries)
	assert.Equal(t, 2, report.Records)
	assert.Equal(t, 2, report.Published)
	assert.Equal(t, 1, report.Updated)
}

func TestReplay_EmptyStore(t *testing.T) {
	report, err := createTestStore(t).Replay(context.Background())
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Zero(t, report.Entries)
}

func TestReplay_DetectsLostJournalEntry(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	key := testKey(t, "patient-42", "C1")

	require.NoError(t, s.Insert(ctx, key, ledger.NewRecord(true, []byte("lab-A"))))
	require.NoError(t, s.Overwrite(ctx, key, ledger.NewRecord(false, []byte("lab-B"))))

	_, err := s.db.ExecContext(ctx, `DELETE FROM record_journal WHERE seq = 2`)
	require.NoError(t, err)

	report, err := s.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, key, report.Mismatches[0].Key)
	assert.Equal(t, "record differs from journal", report.Mismatches[0].Reason)
}

func TestReplay_DetectsOutOfOrderKinds(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	key := testKey(t, "patient-42", "C1")

	require.NoError(t, s.Insert(ctx, key, ledger.NewRecord(true, []byte("lab-A"))))
	_, err := s.db.ExecContext(ctx, `UPDATE record_journal SET kind = 'updated' WHERE seq = 1`)
	require.NoError(t, err)

	report, err := s.Replay(ctx)
	require.NoError(t, err)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, int64(1), report.Mismatches[0].Seq)
	assert.Equal(t, "updated before published", report.Mismatches[0].Reason)
	assert.Contains(t, report.Mismatches[0].String(), "at seq 1")
}

func TestReplay_DetectsOrphanRecord(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	key := testKey(t, "patient-42", "C1")

	require.NoError(t, s.Insert(ctx, key, ledger.NewRecord(true, []byte("lab-A"))))
	_, err := s.db.ExecContext(ctx, `DELETE FROM record_journal`)
	require.NoError(t, err)

	report, err := s.Replay(ctx)
	require.NoError(t, err)
	assert.False(t, report.OK())
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, "record has no journal entry", report.Mismatches[0].Reason)
}
