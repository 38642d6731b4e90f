// Package canon provides the canonical encoding and hash primitive used to
// address records in the ledger.
//
// canon imports nothing internal. Everything that needs a deterministic byte
// representation (key derivation, golden traces) goes through Marshal, and
// everything that needs a digest goes through a Hasher.
//
// Constraints:
//   - No float values; numbers are int64 only
//   - No null values
//   - Object keys ordered by UTF-16 code units (RFC 8785), strings NFC normalized
//   - Every digest is domain separated: H(domain || 0x00 || data)
package canon
