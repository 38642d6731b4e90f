package ledger

import (
	"context"
	"sync"
)

var _ Store = (*MemStore)(nil)

// MemStore is an in-memory Store. The zero value is not usable; call NewMemStore.
type MemStore struct {
	mu      sync.RWMutex
	records map[Key]Record
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[Key]Record)}
}

// Exists implements Store.
func (s *MemStore) Exists(_ context.Context, key Key) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[key]
	return ok, nil
}

// Get implements Store.
func (s *MemStore) Get(_ context.Context, key Key) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, ErrNoRecord
	}
	return rec, nil
}

// Insert implements Store.
func (s *MemStore) Insert(_ context.Context, key Key, rec Record) error {
	s.put(key, rec)
	return nil
}

// Overwrite implements Store.
func (s *MemStore) Overwrite(_ context.Context, key Key, rec Record) error {
	s.put(key, rec)
	return nil
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemStore) put(key Key, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = NewRecord(rec.positive, rec.tester)
}
