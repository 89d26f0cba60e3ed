package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
	"github.com/cognicore/phrasemine/pkg/phrasemine/store"
)

func TestSaveAndGetRun(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.SaveRun(ctx, store.Run{Input: "corpus/", Algorithm: "bloomspan", MinDocs: 10})
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}
	if id == "" {
		t.Fatal("expected generated run ID")
	}

	r, err := s.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if r.Algorithm != "bloomspan" || r.MinDocs != 10 {
		t.Errorf("run = %+v", r)
	}
	if r.CreatedAt.IsZero() {
		t.Error("CreatedAt must be assigned")
	}

	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("missing run error = %v", err)
	}
}

func TestSavePhrasesRequiresRun(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.SavePhrases(ctx, "nope", []store.PhraseRow{{Phrase: "x"}})
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTopPhrasesOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()

	id, err := s.SaveRun(ctx, store.Run{Input: "in", Algorithm: "bide"})
	if err != nil {
		t.Fatal(err)
	}
	rows := []store.PhraseRow{
		{Phrase: "low support", Support: 2, Length: 2},
		{Phrase: "high support", Support: 9, Length: 2},
		{Phrase: "high support longer", Support: 9, Length: 3},
	}
	if err := s.SavePhrases(ctx, id, rows); err != nil {
		t.Fatal(err)
	}

	top, err := s.TopPhrases(ctx, id, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("len = %d", len(top))
	}
	if top[0].Phrase != "high support longer" || top[1].Phrase != "high support" {
		t.Errorf("ordering = %v", top)
	}
}
