package memory

import (
	"context"
	"sync"

	"classtask-client/internal/domain"
)

// Store is an in-memory implementation of authority.Store.
type Store struct {
	mu       sync.RWMutex
	points   map[string]int
	votes    map[string]map[string]int
	statuses map[string]map[string]domain.TaskStatus
}

func NewStore() *Store {
	return &Store{
		points:   make(map[string]int),
		votes:    make(map[string]map[string]int),
		statuses: make(map[string]map[string]domain.TaskStatus),
	}
}

func (s *Store) AddPoints(_ context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[userID] += delta
	return s.points[userID], nil
}

func (s *Store) Points(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.points[userID], nil
}

func (s *Store) RecordVote(_ context.Context, taskID, option string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.votes[taskID] == nil {
		s.votes[taskID] = make(map[string]int)
	}
	s.votes[taskID][option]++
	return nil
}

func (s *Store) Votes(_ context.Context, taskID string) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.votes[taskID]))
	for option, count := range s.votes[taskID] {
		out[option] = count
	}
	return out, nil
}

func (s *Store) SetStatus(_ context.Context, userID, taskID string, status domain.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.statuses[userID] == nil {
		s.statuses[userID] = make(map[string]domain.TaskStatus)
	}
	s.statuses[userID][taskID] = status
	return nil
}

func (s *Store) Statuses(_ context.Context, userID string) (map[string]domain.TaskStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]domain.TaskStatus, len(s.statuses[userID]))
	for taskID, status := range s.statuses[userID] {
		out[taskID] = status
	}
	return out, nil
}
