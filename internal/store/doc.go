// Package store provides SQLite-backed durable storage for labledger records.
//
// Two tables:
//   - records: current value per key (key hex, positive, tester)
//   - record_journal: append-only log of every write, kind published|updated
//
// The journal is written by AFTER INSERT / AFTER UPDATE triggers on records,
// so a state change and its journal entry commit together or not at all.
// Deletes are rejected by a trigger; the ledger has no deletion path.
//
// # Ordering
//
// Journal reads are ordered by seq ASC. seq comes from AUTOINCREMENT and is
// never reused, so a handler resuming with ledger.NewClockAt(LastSeq) stamps
// notices with the same numbers the journal assigns.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
