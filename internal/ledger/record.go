package ledger

import "bytes"

// Record is a stored test outcome. It is immutable: the tester label is
// copied on construction and on every read.
type Record struct {
	positive bool
	tester   []byte
}

// NewRecord builds a Record, copying tester.
func NewRecord(positive bool, tester []byte) Record {
	return Record{positive: positive, tester: clone(tester)}
}

// Positive reports the test outcome.
func (r Record) Positive() bool { return r.positive }

// Tester returns a copy of the tester label.
func (r Record) Tester() []byte { return clone(r.tester) }

// Equal reports whether two records hold the same outcome and label.
func (r Record) Equal(other Record) bool {
	return r.positive == other.positive && bytes.Equal(r.tester, other.tester)
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
