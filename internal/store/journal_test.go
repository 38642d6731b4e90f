package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labledger/internal/ledger"
)

func TestJournal_EmptyStore(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	entries, err := s.Journal(ctx, 0)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), seq)
}

func TestJournal_OrderAndKinds(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	k1 := testKey(t, "patient-42", "C1")
	k2 := testKey(t, "patient-43", "C1")

	require.NoError(t, s.Insert(ctx, k1, ledger.NewRecord(true, []byte("lab-A"))))
	require.NoError(t, s.Insert(ctx, k2, ledger.NewRecord(true, []byte("lab-A"))))
	require.NoError(t, s.Overwrite(ctx, k1, ledger.NewRecord(false, []byte("lab-B"))))

	entries, err := s.Journal(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, []int64{1, 2, 3}, []int64{entries[0].Seq, entries[1].Seq, entries[2].Seq})
	assert.Equal(t, ledger.KindPublished, entries[0].Kind)
	assert.Equal(t, k1, entries[0].Key)
	assert.Equal(t, ledger.KindPublished, entries[1].Kind)
	assert.Equal(t, k2, entries[1].Key)
	assert.Equal(t, ledger.KindUpdated, entries[2].Kind)
	assert.True(t, entries[2].Record.Equal(ledger.NewRecord(false, []byte("lab-B"))))

	ev := entries[2].Event()
	require.IsType(t, ledger.Updated{}, ev)
	assert.Equal(t, k1, ev.Fields().Key)
	assert.Equal(t, []byte("lab-B"), ev.Fields().Tester)

	tail, err := s.Journal(ctx, 2)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(3), tail[0].Seq)

	seq, err := s.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), seq)
}

func TestJournal_History(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	k1 := testKey(t, "patient-42", "C1")
	k2 := testKey(t, "patient-42", "C2")

	require.NoError(t, s.Insert(ctx, k1, ledger.NewRecord(true, []byte("lab-A"))))
	require.NoError(t, s.Insert(ctx, k2, ledger.NewRecord(true, []byte("lab-X"))))
	require.NoError(t, s.Overwrite(ctx, k1, ledger.NewRecord(false, []byte("lab-B"))))

	hist, err := s.History(ctx, k1)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, ledger.KindPublished, hist[0].Kind)
	assert.Equal(t, ledger.KindUpdated, hist[1].Kind)
	assert.Equal(t, int64(3), hist[1].Seq)
}

func TestJournal_ClockResumesAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	sub := ledger.Submission{Subject: []byte("patient-42"), Tester: []byte("lab-A"), Positive: true}

	s1, err := Open(path)
	require.NoError(t, err)
	h1 := ledger.NewHandler(s1, nil)
	_, err = h1.Publish(ctx, ledger.Signed("C1"), sub)
	require.NoError(t, err)
	_, err = h1.Amend(ctx, ledger.Signed("C1"), sub)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	last, err := s2.LastSeq(ctx)
	require.NoError(t, err)
	h2 := ledger.NewHandler(s2, nil, ledger.WithClock(ledger.NewClockAt(last)))

	n, err := h2.Amend(ctx, ledger.Signed("C1"), sub)
	require.NoError(t, err)

	last, err = s2.LastSeq(ctx)
	require.NoError(t, err)
	assert.Equal(t, last, n.Seq, "notice seq matches journal seq")
}
