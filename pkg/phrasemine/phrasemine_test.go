package phrasemine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/cognicore/phrasemine/pkg/phrasemine/corpus"
	"github.com/cognicore/phrasemine/pkg/phrasemine/ingest"
	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

func TestNewAlgorithm(t *testing.T) {
	lg := log.New(io.Discard)
	for name, want := range map[string]string{
		"":          "bloomspan",
		"default":   "bloomspan",
		"bloomspan": "bloomspan",
		"bide":      "bide",
		"clospan":   "clospan",
	} {
		algo, err := NewAlgorithm(name, lg)
		if err != nil {
			t.Fatalf("NewAlgorithm(%q): %v", name, err)
		}
		if algo.Name() != want {
			t.Errorf("NewAlgorithm(%q).Name() = %q, want %q", name, algo.Name(), want)
		}
	}

	if _, err := NewAlgorithm("prefixspan", lg); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("unknown algorithm error = %v", err)
	}
}

func TestMineDispatch(t *testing.T) {
	tok := ingest.NewTokenizer()
	texts := []string{"a b c", "a b c", "a b d"}
	raw := make([]ingest.RawDoc, len(texts))
	for i, s := range texts {
		raw[i] = ingest.RawDoc{Path: fmt.Sprintf("doc_%d.txt", i), Tokens: tok.Tokenize(s)}
	}
	lg := log.New(io.Discard)
	c, err := corpus.Build(raw, corpus.Options{InMemory: true, Log: lg})
	if err != nil {
		t.Fatal(err)
	}

	for _, algo := range []string{"bloomspan", "bide", "clospan"} {
		phrases, err := Mine(context.Background(), c, algo,
			mine.Params{MinDocs: 2, NGrams: 2, MinLen: 1, MemLimitMB: 1}, lg)
		if err != nil {
			t.Fatalf("Mine(%s): %v", algo, err)
		}
		for _, p := range phrases {
			if len(p.Tokens) < 1 {
				t.Errorf("%s emitted an empty phrase", algo)
			}
		}
	}
}
