package consent

import (
	"context"
	"fmt"
	"sync"

	"datacustody/internal/domain"
	"datacustody/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records map[int64]domain.ConsentRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[int64]domain.ConsentRecord)}
}

func (s *InMemoryStore) Upsert(_ context.Context, rec domain.ConsentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.UserID] = rec
	return nil
}

func (s *InMemoryStore) FindByUser(_ context.Context, userID int64) (domain.ConsentRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[userID]
	if !ok {
		return domain.ConsentRecord{}, fmt.Errorf("consent for user %d: %w", userID, sentinel.ErrNotFound)
	}
	return rec, nil
}
