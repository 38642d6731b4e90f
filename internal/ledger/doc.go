// Package ledger implements the test-result ledger: key derivation, the record
// store contract and the transition handler that applies Publish and Amend.
//
// A request flows through the handler as one transition:
//
//  1. The storage key is derived from (subject, caller, sequence).
//  2. The store is asked whether the key exists.
//  3. Publish requires absence, Amend requires presence.
//  4. On success the store is written and exactly one event is emitted.
//     On failure nothing is written, nothing is emitted and a
//     *TransitionError is returned.
//
// Transitions are serialized by the handler. Stores are injected; nothing in
// this package holds process-wide state.
//
// Ordering uses a logical clock (Notice.Seq), never wall-clock time. Keys are
// derived without randomness, so the same request against the same store
// state always produces the same key and the same outcome.
package ledger
