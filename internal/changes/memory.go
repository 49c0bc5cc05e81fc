// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Brush Contributors

package changes

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	rec     Record
	expires time.Time
}

// MemoryStore keeps records in process memory. Expired records are
// dropped lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store. A non-positive ttl uses
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[rec.Document] = memoryEntry{rec: rec, expires: s.now().Add(s.ttl)}
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, document string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[document]
	if !ok {
		return Record{}, ErrNotFound(document)
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, document)
		return Record{}, ErrNotFound(document)
	}
	return e.rec, nil
}

// Forget implements Store.
func (s *MemoryStore) Forget(_ context.Context, document string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, document)
	return nil
}

// Len returns the number of records, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
