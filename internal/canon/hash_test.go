package canon

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSHA256Deterministic(t *testing.T) {
	h := SHA256{}
	a := h.Sum(DomainSubject, []byte("patient-42"))
	b := h.Sum(DomainSubject, []byte("patient-42"))

	assert.Equal(t, a, b)
	assert.Len(t, a.String(), 64, "SHA-256 hex is 64 characters")
}

func TestSHA256MatchesDomainSeparatedLayout(t *testing.T) {
	data := []byte("patient-42")
	want := sha256.Sum256(append([]byte(DomainSubject+"\x00"), data...))

	got := SHA256{}.Sum(DomainSubject, data)
	assert.Equal(t, Digest(want), got)
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`["abc","4331",0]`)
	h := SHA256{}

	assert.NotEqual(t, h.Sum(DomainSubject, data), h.Sum(DomainKey, data))
}

func TestNullSeparatorPreventsBoundaryConfusion(t *testing.T) {
	h := SHA256{}
	assert.NotEqual(t, h.Sum("foo", []byte("bar")), h.Sum("foob", []byte("ar")))
}

func TestDigestHexRoundTrip(t *testing.T) {
	d := SHA256{}.Sum(DomainKey, []byte("x"))

	parsed, err := ParseDigest(d.String())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)

	for _, c := range d.String() {
		assert.True(t, strings.ContainsRune("0123456789abcdef", c), "unexpected character %q", c)
	}
}

func TestParseDigestRejectsBadInput(t *testing.T) {
	_, err := ParseDigest("zz")
	assert.Error(t, err)

	_, err = ParseDigest("abcd")
	assert.ErrorContains(t, err, "want 32 bytes")
}

func TestDigestIsZero(t *testing.T) {
	assert.True(t, Digest{}.IsZero())
	assert.False(t, SHA256{}.Sum(DomainKey, nil).IsZero())
}

func TestDomainConstants(t *testing.T) {
	assert.Equal(t, "labledger/subject/v1", DomainSubject)
	assert.Equal(t, "labledger/key/v1", DomainKey)
}
