package loginguard

import (
	"context"
	"sync"
)

type InMemoryStore struct {
	mu      sync.Mutex
	records []Record
}

func NewInMemoryStore(records ...Record) *InMemoryStore {
	return &InMemoryStore{records: records}
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID int64) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Record
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	kept := s.records[:0]
	for _, r := range s.records {
		if r.UserID == userID {
			ids = append(ids, r.ID)
			continue
		}
		kept = append(kept, r)
	}
	s.records = kept
	return ids, nil
}
