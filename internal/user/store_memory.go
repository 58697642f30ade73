package user

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"datacustody/internal/domain"
	"datacustody/pkg/platform/sentinel"
)

// InMemoryStore keeps user rows in memory for tests and local runs.
type InMemoryStore struct {
	mu    sync.RWMutex
	users map[int64]domain.User
}

func NewInMemoryStore(users ...domain.User) *InMemoryStore {
	s := &InMemoryStore{users: make(map[int64]domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

// Put inserts or replaces a user row. Test helper.
func (s *InMemoryStore) Put(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *InMemoryStore) FindByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
	}
	return u, nil
}

func (s *InMemoryStore) ListInactiveSince(_ context.Context, cutoff time.Time) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.User
	for _, u := range s.users {
		if !u.Pseudonymized && u.LastActivity().Before(cutoff) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) Pseudonymize(_ context.Context, id int64, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
	}
	u.Username = fmt.Sprintf("deleted-%d", id)
	u.Name = "Deleted User"
	u.Email = fmt.Sprintf("deleted-%d@invalid.invalid", id)
	u.Pseudonymized = true
	u.LastVisitDate = now
	s.users[id] = u
	return nil
}
