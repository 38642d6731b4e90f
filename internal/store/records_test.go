package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labledger/internal/ledger"
)

func testKey(t *testing.T, subject string, caller ledger.Identity) ledger.Key {
	t.Helper()
	return ledger.NewDeriver(nil).MustDerive([]byte(subject), caller, ledger.FixedSequence)
}

func TestRecords_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	key := testKey(t, "patient-42", "C1")

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Get(ctx, key)
	assert.ErrorIs(t, err, ledger.ErrNoRecord)

	require.NoError(t, s.Insert(ctx, key, ledger.NewRecord(true, []byte("lab-A"))))

	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Positive())
	assert.Equal(t, []byte("lab-A"), rec.Tester())

	require.NoError(t, s.Overwrite(ctx, key, ledger.NewRecord(false, []byte("lab-B"))))
	rec, err = s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Equal(ledger.NewRecord(false, []byte("lab-B"))))

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecords_BinaryAndEmptyTester(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	bin := []byte{0x00, 0xff, 0xfe, 'x'}
	k1 := testKey(t, "s1", "C1")
	k2 := testKey(t, "s2", "C1")
	require.NoError(t, s.Insert(ctx, k1, ledger.NewRecord(true, bin)))
	require.NoError(t, s.Insert(ctx, k2, ledger.NewRecord(false, nil)))

	rec, err := s.Get(ctx, k1)
	require.NoError(t, err)
	assert.Equal(t, bin, rec.Tester())

	rec, err = s.Get(ctx, k2)
	require.NoError(t, err)
	assert.Empty(t, rec.Tester())
	assert.False(t, rec.Positive())
}

func TestRecords_DeleteRejected(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	key := testKey(t, "patient-42", "C1")
	require.NoError(t, s.Insert(ctx, key, ledger.NewRecord(true, []byte("lab-A"))))

	_, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE key = ?`, key.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "records are never deleted")

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecords_SurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")
	key := testKey(t, "patient-42", "C1")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Insert(ctx, key, ledger.NewRecord(true, []byte("lab-A"))))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	rec, err := s2.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, rec.Equal(ledger.NewRecord(true, []byte("lab-A"))))
}

func TestRecords_HandlerTransitions(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	sink := ledger.NewMemorySink()
	h := ledger.NewHandler(s, sink)
	sub := func(tester string, positive bool) ledger.Submission {
		return ledger.Submission{Subject: []byte("patient-42"), Tester: []byte(tester), Positive: positive}
	}

	_, err := h.Amend(ctx, ledger.Signed("C1"), sub("lab-A", true))
	assert.True(t, ledger.IsNotFound(err))

	_, err = h.Publish(ctx, ledger.Signed("C1"), sub("lab-A", true))
	require.NoError(t, err)

	_, err = h.Publish(ctx, ledger.Signed("C1"), sub("lab-Z", false))
	assert.True(t, ledger.IsAlreadyPublished(err))

	_, err = h.Amend(ctx, ledger.Signed("C1"), sub("lab-B", false))
	require.NoError(t, err)

	_, rec, err := h.Lookup(ctx, ledger.Signed("C1"), []byte("patient-42"))
	require.NoError(t, err)
	assert.True(t, rec.Equal(ledger.NewRecord(false, []byte("lab-B"))))

	entries, err := s.Journal(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2, "one journal entry per successful transition")
	assert.Equal(t, ledger.KindPublished, entries[0].Kind)
	assert.Equal(t, ledger.KindUpdated, entries[1].Kind)
	assert.Equal(t, 2, sink.Len())
}
