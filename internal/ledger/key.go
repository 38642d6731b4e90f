package ledger

import (
	"encoding/hex"
	"fmt"

	"github.com/roach88/labledger/internal/canon"
)

// FixedSequence is the sequence value every transition derives its key with.
// A caller therefore holds at most one record per subject.
const FixedSequence int64 = 0

// Identity is the authenticated principal attributed to a request by the host.
type Identity string

// Key addresses a record in the store.
type Key canon.Digest

// String returns the 64-character lowercase hex form.
func (k Key) String() string {
	return canon.Digest(k).String()
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Key) UnmarshalText(text []byte) error {
	parsed, err := ParseKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKey decodes the hex form produced by Key.String.
func ParseKey(s string) (Key, error) {
	d, err := canon.ParseDigest(s)
	if err != nil {
		return Key{}, fmt.Errorf("parse key: %w", err)
	}
	return Key(d), nil
}

// Deriver computes storage keys. It is a pure function of its inputs.
type Deriver struct {
	hasher canon.Hasher
}

// NewDeriver returns a Deriver over h. A nil h selects canon.SHA256.
func NewDeriver(h canon.Hasher) *Deriver {
	if h == nil {
		h = canon.SHA256{}
	}
	return &Deriver{hasher: h}
}

// Derive computes H(encode(H(subject), caller, seq)).
//
// The seed depends only on the subject. The triple is encoded as the
// canonical JSON array [seed_hex, caller_hex, seq]; hex keeps the caller
// bytes out of Unicode normalization so distinct identities never collapse.
func (d *Deriver) Derive(subject []byte, caller Identity, seq int64) (Key, error) {
	seed := d.hasher.Sum(canon.DomainSubject, subject)

	encoded, err := canon.Marshal(canon.Array{
		canon.String(seed.String()),
		canon.String(hex.EncodeToString([]byte(caller))),
		canon.Int(seq),
	})
	if err != nil {
		return Key{}, fmt.Errorf("derive key: %w", err)
	}

	return Key(d.hasher.Sum(canon.DomainKey, encoded)), nil
}

// MustDerive is like Derive but panics on error.
// Use only in tests or when inputs are known to be valid.
func (d *Deriver) MustDerive(subject []byte, caller Identity, seq int64) Key {
	k, err := d.Derive(subject, caller, seq)
	if err != nil {
		panic(err)
	}
	return k
}
