package ingest

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func newTestLoader() *Loader {
	return &Loader{
		Tokenizer: NewTokenizer(),
		Sampling:  1.0,
		Log:       log.New(io.Discard),
	}
}

func TestMatchMask(t *testing.T) {
	cases := []struct {
		mask string
		name string
		want bool
	}{
		{"", "notes.txt", true},
		{"*", "notes.txt", true},
		{"*.txt", "notes.txt", true},
		{"*.txt", "notes.md", false},
		{"*.txt", "archive.TXT", true},
		{"readme.md", "readme.md", true},
		{"readme.md", "other.md", false},
	}
	for _, c := range cases {
		l := newTestLoader()
		l.Mask = c.mask
		if got := l.matchMask(c.name); got != c.want {
			t.Errorf("matchMask(%q, %q) = %v, want %v", c.mask, c.name, got, c.want)
		}
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("a.txt", "alpha beta")
	write("b.txt", "gamma")
	write("skip.md", "not this one")

	l := newTestLoader()
	l.Mask = "*.txt"
	docs, err := l.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("LoadDirectory: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	// Sorted path order keeps full runs deterministic.
	if len(docs[0].Tokens) != 2 || docs[0].Tokens[0] != "alpha" {
		t.Errorf("first doc = %v", docs[0].Tokens)
	}
	if len(docs[1].Tokens) != 1 || docs[1].Tokens[0] != "gamma" {
		t.Errorf("second doc = %v", docs[1].Tokens)
	}
}

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	content := "title,body\n\"the, quoted\",more words\nsolo\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	l := newTestLoader()
	docs, err := l.LoadCSV(path, ',')
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	// Fields of a record merge into one document.
	want := []string{"the", "quoted", "more", "words"}
	if len(docs[1].Tokens) != len(want) {
		t.Fatalf("second row tokens = %v, want %v", docs[1].Tokens, want)
	}
	for i, w := range want {
		if docs[1].Tokens[i] != w {
			t.Errorf("token %d = %q, want %q", i, docs[1].Tokens[i], w)
		}
	}
}

func TestLoadCSVNewlineDelimiter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lines.txt")
	if err := os.WriteFile(path, []byte("one line\n\nanother line\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := newTestLoader()
	docs, err := l.LoadCSV(path, '\n')
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[1].Tokens[0] != "another" {
		t.Errorf("second doc = %v", docs[1].Tokens)
	}
}

func TestSampling(t *testing.T) {
	paths := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	got := samplePaths(append([]string(nil), paths...), 0.5)
	if len(got) != 5 {
		t.Errorf("expected 5 sampled paths, got %d", len(got))
	}
	full := samplePaths(append([]string(nil), paths...), 1.0)
	if len(full) != len(paths) {
		t.Errorf("sampling 1.0 must keep all paths, got %d", len(full))
	}
}
