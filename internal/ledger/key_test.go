package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labledger/internal/canon"
)

// patient42C1 is H(H("patient-42"), "C1", 0) under canon.SHA256.
const patient42C1 = "6a7f5e5bece1cda00ee151c2f1ad9debd4002c5290783b3ad006f347a4d9603b"

func TestDeriveDeterministic(t *testing.T) {
	d := NewDeriver(nil)

	k1, err := d.Derive([]byte("patient-42"), "C1", FixedSequence)
	require.NoError(t, err)
	k2, err := d.Derive([]byte("patient-42"), "C1", FixedSequence)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
}

func TestDeriveKnownVector(t *testing.T) {
	k := NewDeriver(canon.SHA256{}).MustDerive([]byte("patient-42"), "C1", 0)
	assert.Equal(t, patient42C1, k.String())
}

func TestDeriveSeedIsCallerIndependent(t *testing.T) {
	h := canon.SHA256{}
	d := NewDeriver(h)
	seed := h.Sum(canon.DomainSubject, []byte("patient-42"))

	encoded := canon.MustMarshal(canon.Array{
		canon.String(seed.String()),
		canon.String("4331"), // hex("C1")
		canon.Int(0),
	})
	want := Key(h.Sum(canon.DomainKey, encoded))

	assert.Equal(t, want, d.MustDerive([]byte("patient-42"), "C1", 0))
}

func TestDeriveDistinguishesInputs(t *testing.T) {
	d := NewDeriver(nil)
	base := d.MustDerive([]byte("patient-42"), "C1", 0)

	tests := []struct {
		name    string
		subject string
		caller  Identity
		seq     int64
	}{
		{"different subject", "patient-43", "C1", 0},
		{"different caller", "patient-42", "C2", 0},
		{"different sequence", "patient-42", "C1", 1},
		{"empty subject", "", "C1", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, d.MustDerive([]byte(tt.subject), tt.caller, tt.seq))
		})
	}
}

func TestDeriveCallerNotNormalized(t *testing.T) {
	// Composed and decomposed forms are distinct identities.
	d := NewDeriver(nil)
	a := d.MustDerive([]byte("s"), Identity("caf\u00e9"), 0)
	b := d.MustDerive([]byte("s"), Identity("cafe\u0301"), 0)
	assert.NotEqual(t, a, b)
}

func TestDeriveUsesInjectedHasher(t *testing.T) {
	calls := 0
	h := hasherFunc(func(domain string, data []byte) canon.Digest {
		calls++
		return canon.SHA256{}.Sum(domain, data)
	})

	NewDeriver(h).MustDerive([]byte("patient-42"), "C1", 0)
	assert.Equal(t, 2, calls, "seed hash plus key hash")
}

func TestKeyTextRoundTrip(t *testing.T) {
	k := NewDeriver(nil).MustDerive([]byte("patient-42"), "C1", 0)

	text, err := k.MarshalText()
	require.NoError(t, err)

	var parsed Key
	require.NoError(t, parsed.UnmarshalText(text))
	assert.Equal(t, k, parsed)

	_, err = ParseKey("not-hex")
	assert.Error(t, err)
}

type hasherFunc func(domain string, data []byte) canon.Digest

func (f hasherFunc) Sum(domain string, data []byte) canon.Digest { return f(domain, data) }
