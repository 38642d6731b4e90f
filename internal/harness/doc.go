// Package harness runs labledger conformance scenarios.
//
// A scenario is a YAML file listing transitions (publish, amend, lookup)
// with the outcome each one must produce, plus assertions over the emitted
// notices and the final records. Each run gets a fresh store, a fresh
// logical clock and a sequential notice ID generator, so the same scenario
// always yields a byte-identical trace. Traces are serialized as canonical
// JSON and compared against golden files under testdata/golden.
//
// Scenarios run on the in-memory store by default. RunOn executes the same
// scenario against any ledger.Store, which is how the SQLite and Redis
// backends are held to the same behavior.
package harness
