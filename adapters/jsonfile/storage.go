// Package jsonfile persists measurement histories and competitions as two
// JSON documents on disk. Every mutation rewrites the affected document
// whole; this matches the coarse read-modify-write persistence model and is
// suitable for a small single-process bot.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"fitcompkit/core"
)

// Store keeps both documents cached in memory and flushes on every write.
// A single mutex serializes access within the process; concurrent processes
// sharing the files can still lose updates (no version check).
type Store struct {
	statsPath        string
	competitionsPath string

	mu           sync.Mutex
	histories    map[core.UserID]core.History
	competitions map[string]core.Competition
}

// New opens (or lazily creates) the two documents.
func New(statsPath, competitionsPath string) (*Store, error) {
	s := &Store{
		statsPath:        statsPath,
		competitionsPath: competitionsPath,
		histories:        map[core.UserID]core.History{},
		competitions:     map[string]core.Competition{},
	}
	if err := loadJSON(statsPath, &s.histories); err != nil {
		return nil, err
	}
	var comps []core.Competition
	if err := loadJSON(competitionsPath, &comps); err != nil {
		return nil, err
	}
	for _, c := range comps {
		s.competitions[c.Name] = c
	}
	return s, nil
}

func loadJSON(path string, target any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, target)
}

// persistJSON writes atomically via a temp file rename so a crash mid-write
// never truncates the document.
func persistJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *Store) persistStats() error {
	return persistJSON(s.statsPath, s.histories)
}

func (s *Store) persistCompetitions() error {
	// Stored as a sorted array; participant join order lives inside each
	// competition and must survive the round trip.
	comps := make([]core.Competition, 0, len(s.competitions))
	for _, c := range s.competitions {
		comps = append(comps, c)
	}
	sort.Slice(comps, func(i, j int) bool { return comps[i].Name < comps[j].Name })
	return persistJSON(s.competitionsPath, comps)
}

func (s *Store) UserHistory(_ context.Context, user core.UserID) (core.History, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.histories[user]; ok {
		return h.Clone(), nil
	}
	return core.History{}, nil
}

func (s *Store) PutUserHistory(_ context.Context, user core.UserID, h core.History) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[user] = h.Clone()
	return s.persistStats()
}

func (s *Store) Competition(_ context.Context, name string) (core.Competition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	return s.persistCompetitions()
}

func (s *Store) CompetitionNames(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.competitions))
	for name := range s.competitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
