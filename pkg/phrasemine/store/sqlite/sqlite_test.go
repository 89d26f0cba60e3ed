package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cognicore/phrasemine/pkg/phrasemine/store"
)

func openTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRunRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, store.Run{
		Input: "./corpus", Algorithm: "clospan", MinDocs: 5, NGrams: 3, MinLen: 2,
	})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	r, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r.Input != "./corpus" || r.Algorithm != "clospan" || r.MinDocs != 5 || r.NGrams != 3 || r.MinLen != 2 {
		t.Errorf("run = %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt not persisted")
	}
}

func TestPhraseRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, store.Run{Input: "in", Algorithm: "bloomspan"})
	if err != nil {
		t.Fatal(err)
	}

	rows := []store.PhraseRow{
		{Phrase: "machine learning", Support: 12, Length: 2, ExampleFiles: "a.txt|b.txt"},
		{Phrase: "neural network models", Support: 30, Length: 3, ExampleFiles: "c.txt"},
	}
	if err := s.SavePhrases(ctx, id, rows); err != nil {
		t.Fatalf("SavePhrases: %v", err)
	}

	top, err := s.TopPhrases(ctx, id, 10)
	if err != nil {
		t.Fatalf("TopPhrases: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d", len(top))
	}
	if top[0].Phrase != "neural network models" || top[0].Support != 30 {
		t.Errorf("top phrase = %+v", top[0])
	}
	if top[1].ExampleFiles != "a.txt|b.txt" {
		t.Errorf("example files = %q", top[1].ExampleFiles)
	}
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, algo := range []string{"bloomspan", "bide"} {
		if _, err := s.SaveRun(ctx, store.Run{Input: "in", Algorithm: algo}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := s.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("len = %d", len(runs))
	}
}
