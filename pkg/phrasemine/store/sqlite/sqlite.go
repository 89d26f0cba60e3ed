// Package sqlite provides the SQLite-backed result store.
package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
	"github.com/cognicore/phrasemine/pkg/phrasemine/store"
)

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db      *sql.DB
	entropy *ulid.MonotonicEntropy
}

// Open opens a SQLite database with WAL mode enabled and the schema
// initialized.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	input TEXT NOT NULL,
	algorithm TEXT NOT NULL,
	min_docs INTEGER NOT NULL,
	ngrams INTEGER NOT NULL,
	min_len INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS phrases (
	run_id TEXT NOT NULL,
	phrase TEXT NOT NULL,
	support INTEGER NOT NULL,
	length INTEGER NOT NULL,
	example_files TEXT,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_phrases_run_support ON phrases(run_id, support DESC);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun inserts a run record, assigning a ULID when the caller left the ID
// empty, and returns the ID.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) (string, error) {
	if r.ID == "" {
		r.ID = ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, input, algorithm, min_docs, ngrams, min_len, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Input, r.Algorithm, r.MinDocs, r.NGrams, r.MinLen,
		r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return r.ID, nil
}

// GetRun fetches one run by ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, input, algorithm, min_docs, ngrams, min_len, created_at
		FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ListRuns returns all runs, newest first.
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, algorithm, min_docs, ngrams, min_len, created_at
		FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (store.Run, error) {
	var r store.Run
	var created string
	err := row.Scan(&r.ID, &r.Input, &r.Algorithm, &r.MinDocs, &r.NGrams, &r.MinLen, &created)
	if err == sql.ErrNoRows {
		return store.Run{}, internalerr.ErrNotFound
	}
	if err != nil {
		return store.Run{}, err
	}
	if t, perr := time.Parse(time.RFC3339, created); perr == nil {
		r.CreatedAt = t
	}
	return r, nil
}

// SavePhrases bulk-inserts the phrases of a run inside one transaction.
func (s *sqliteStore) SavePhrases(ctx context.Context, runID string, phrases []store.PhraseRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO phrases (run_id, phrase, support, length, example_files)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range phrases {
		if _, err := stmt.ExecContext(ctx, runID, p.Phrase, p.Support, p.Length, p.ExampleFiles); err != nil {
			tx.Rollback()
			return fmt.Errorf("save phrase %q: %w", p.Phrase, err)
		}
	}
	return tx.Commit()
}

// TopPhrases returns a run's phrases by descending support, then length.
func (s *sqliteStore) TopPhrases(ctx context.Context, runID string, k int) ([]store.PhraseRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT phrase, support, length, example_files
		FROM phrases WHERE run_id = ?
		ORDER BY support DESC, length DESC
		LIMIT ?`, runID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.PhraseRow
	for rows.Next() {
		var p store.PhraseRow
		var examples sql.NullString
		if err := rows.Scan(&p.Phrase, &p.Support, &p.Length, &examples); err != nil {
			return nil, err
		}
		p.ExampleFiles = examples.String
		out = append(out, p)
	}
	return out, rows.Err()
}
