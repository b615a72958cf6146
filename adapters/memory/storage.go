// Package memory provides an in-process Storage implementation, useful for
// tests, demos and single-instance bots.
package memory

import (
	"context"
	"sort"
	"sync"

	"fitcompkit/core"
)

// Store keeps histories and competitions in process memory. All methods
// return deep copies so callers never share mutable state with the store.
type Store struct {
	mu           sync.RWMutex
	histories    map[core.UserID]core.History
	competitions map[string]core.Competition
}

func New() *Store {
	return &Store{
		histories:    map[core.UserID]core.History{},
		competitions: map[string]core.Competition{},
	}
}

func (s *Store) UserHistory(_ context.Context, user core.UserID) (core.History, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h, ok := s.histories[user]; ok {
		return h.Clone(), nil
	}
	return core.History{}, nil
}

func (s *Store) PutUserHistory(_ context.Context, user core.UserID, h core.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[user] = h.Clone()
	return nil
}

func (s *Store) Competition(_ context.Context, name string) (core.Competition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.competitions[name]
	if !ok {
		return core.Competition{}, core.ErrNotFound
	}
	return c.Clone(), nil
}

func (s *Store) PutCompetition(_ context.Context, c core.Competition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.competitions[c.Name] = c.Clone()
	return nil
}

func (s *Store) CompetitionNames(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.competitions))
	for name := range s.competitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

var _ interface {
	UserHistory(context.Context, core.UserID) (core.History, error)
	PutUserHistory(context.Context, core.UserID, core.History) error
	Competition(context.Context, string) (core.Competition, error)
	PutCompetition(context.Context, core.Competition) error
	CompetitionNames(context.Context) ([]string, error)
} = (*Store)(nil)
