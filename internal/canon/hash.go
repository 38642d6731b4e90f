package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for domain-separated hashing.
// The version suffix leaves room for an algorithm migration.
const (
	DomainSubject = "labledger/subject/v1"
	DomainKey     = "labledger/key/v1"
)

// DigestSize is the width of every digest in bytes.
const DigestSize = sha256.Size

// Digest is a fixed-width hash output.
type Digest [DigestSize]byte

// String returns the lowercase hex encoding (64 characters).
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// ParseDigest decodes a 64-character hex string.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("parse digest: %w", err)
	}
	if len(raw) != DigestSize {
		return d, fmt.Errorf("parse digest: want %d bytes, got %d", DigestSize, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// Hasher is a collision-resistant hash primitive with domain separation.
// Implementations must be deterministic and safe for concurrent use.
type Hasher interface {
	Sum(domain string, data []byte) Digest
}

// SHA256 hashes as SHA-256(domain || 0x00 || data).
// The null separator prevents domain/data boundary ambiguity.
type SHA256 struct{}

// Sum implements Hasher.
func (SHA256) Sum(domain string, data []byte) Digest {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)

	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
