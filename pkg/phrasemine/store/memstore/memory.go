// Package memstore is an in-memory implementation of store.Store, used in
// tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
	"github.com/cognicore/phrasemine/pkg/phrasemine/store"
)

// Store is an in-memory store.Store.
type Store struct {
	mu      sync.RWMutex
	nextID  int
	runs    map[string]store.Run
	phrases map[string][]store.PhraseRow
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		nextID:  1,
		runs:    make(map[string]store.Run),
		phrases: make(map[string][]store.PhraseRow),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRun implements store.Store.
func (s *Store) SaveRun(ctx context.Context, r store.Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		r.ID = fmt.Sprintf("run_%d", s.nextID)
		s.nextID++
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	s.runs[r.ID] = r
	return r.ID, nil
}

// GetRun implements store.Store.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	if !ok {
		return store.Run{}, internalerr.ErrNotFound
	}
	return r, nil
}

// ListRuns implements store.Store.
func (s *Store) ListRuns(ctx context.Context) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		runs = append(runs, r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

// SavePhrases implements store.Store.
func (s *Store) SavePhrases(ctx context.Context, runID string, rows []store.PhraseRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[runID]; !ok {
		return internalerr.ErrNotFound
	}
	s.phrases[runID] = append(s.phrases[runID], rows...)
	return nil
}

// TopPhrases implements store.Store.
func (s *Store) TopPhrases(ctx context.Context, runID string, k int) ([]store.PhraseRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]store.PhraseRow, len(s.phrases[runID]))
	copy(rows, s.phrases[runID])
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Support != rows[j].Support {
			return rows[i].Support > rows[j].Support
		}
		return rows[i].Length > rows[j].Length
	})
	if k < len(rows) {
		rows = rows[:k]
	}
	return rows, nil
}
