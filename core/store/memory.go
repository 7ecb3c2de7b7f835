package store

import (
	"context"
	"sync"
)

// MemoryStore keeps records in memory. It backs tests and the API when no
// persistent backend is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	recs []SlotRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (s *MemoryStore) Append(_ context.Context, rec SlotRecord) error {
	s.mu.Lock()
	s.recs = append(s.recs, rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Query(_ context.Context, q Query) ([]SlotRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []SlotRecord
	for _, r := range s.recs {
		if q.Matches(r) {
			res = append(res, r)
		}
	}
	return q.limit(res), nil
}

func (s *MemoryStore) Close() error { return nil }
