// Package testutil holds deterministic helpers for tests and scenarios.
package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator issues notice IDs of the form "{prefix}-{n:04d}".
//
// The same scenario run with a fresh generator produces byte-identical
// traces, which golden comparison depends on.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. If prefix is empty,
// Generate() uses "notice".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "notice"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID. The first call returns "{prefix}-0001".
//
// Implements ledger.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}

// Issued returns how many IDs have been generated.
func (g *SequentialIDGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}

// Reset restarts numbering. After Reset(), the next ID ends in 0001.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n = 0
}
