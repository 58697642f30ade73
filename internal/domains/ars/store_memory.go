package ars

import (
	"context"
	"sync"
)

type InMemoryStore struct {
	mu     sync.Mutex
	logs   []LogEntry
	labels []DownloadID
}

func NewInMemoryStore(logs []LogEntry, labels []DownloadID) *InMemoryStore {
	return &InMemoryStore{logs: logs, labels: labels}
}

func (s *InMemoryStore) ListLogsByUser(_ context.Context, userID int64) ([]LogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []LogEntry
	for _, l := range s.logs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ListDownloadIDsByUser(_ context.Context, userID int64) ([]DownloadID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []DownloadID
	for _, d := range s.labels {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *InMemoryStore) DeleteLogsByUser(_ context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	kept := s.logs[:0]
	for _, l := range s.logs {
		if l.UserID == userID {
			ids = append(ids, l.ID)
			continue
		}
		kept = append(kept, l)
	}
	s.logs = kept
	return ids, nil
}

func (s *InMemoryStore) DeleteDownloadIDsByUser(_ context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	kept := s.labels[:0]
	for _, d := range s.labels {
		if d.UserID == userID {
			ids = append(ids, d.ID)
			continue
		}
		kept = append(kept, d)
	}
	s.labels = kept
	return ids, nil
}
