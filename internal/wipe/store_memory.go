package wipe

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// InMemoryStore keeps audit records in memory for tests and local runs.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[int64][]*AuditRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[int64][]*AuditRecord)}
}

func (s *InMemoryStore) Record(_ context.Context, rec *AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	stored := *rec
	s.records[rec.UserID] = append([]*AuditRecord{&stored}, s.records[rec.UserID]...)
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID int64) ([]*AuditRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*AuditRecord{}, s.records[userID]...), nil
}
