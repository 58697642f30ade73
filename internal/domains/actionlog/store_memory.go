package actionlog

import (
	"context"
	"sync"
)

type InMemoryStore struct {
	mu      sync.Mutex
	entries []Entry
}

func NewInMemoryStore(entries ...Entry) *InMemoryStore {
	return &InMemoryStore{entries: entries}
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID int64) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteByUser(_ context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.UserID == userID {
			ids = append(ids, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return ids, nil
}
