// Package store persists mining runs and their phrases so results can be
// queried after the process exits.
package store

import (
	"context"
	"time"
)

// Store is the interface for persisting and querying mining results.
type Store interface {
	Close() error

	// Runs
	SaveRun(ctx context.Context, r Run) (string, error)
	GetRun(ctx context.Context, id string) (Run, error)
	ListRuns(ctx context.Context) ([]Run, error)

	// Phrases
	SavePhrases(ctx context.Context, runID string, rows []PhraseRow) error
	TopPhrases(ctx context.Context, runID string, k int) ([]PhraseRow, error)
}

// Run records one mining invocation.
type Run struct {
	ID        string
	Input     string
	Algorithm string
	MinDocs   int
	NGrams    int
	MinLen    int
	CreatedAt time.Time
}

// PhraseRow is one mined phrase in renderable form.
type PhraseRow struct {
	Phrase       string
	Support      int
	Length       int
	ExampleFiles string
}
