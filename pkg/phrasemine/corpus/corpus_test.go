package corpus

import (
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/cognicore/phrasemine/pkg/phrasemine/ingest"
)

func rawDocs(texts ...string) []ingest.RawDoc {
	tok := ingest.NewTokenizer()
	docs := make([]ingest.RawDoc, len(texts))
	for i, s := range texts {
		docs[i] = ingest.RawDoc{Path: fmt.Sprintf("doc_%d.txt", i), Tokens: tok.Tokenize(s)}
	}
	return docs
}

func buildInMemory(t *testing.T, texts ...string) *Corpus {
	t.Helper()
	c, err := Build(rawDocs(texts...), Options{InMemory: true, Log: log.New(io.Discard)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return c
}

func buildOnDisk(t *testing.T, cacheSize int, preload bool, texts ...string) *Corpus {
	t.Helper()
	c, err := Build(rawDocs(texts...), Options{
		CacheSize: cacheSize,
		Preload:   preload,
		BinPath:   filepath.Join(t.TempDir(), "corpus_data.bin"),
		Log:       log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestBuildAssignsDenseIDs(t *testing.T) {
	c := buildInMemory(t, "a b c", "b c d")

	if c.NumDocs() != 2 {
		t.Fatalf("NumDocs = %d", c.NumDocs())
	}
	if c.VocabSize() != 4 {
		t.Fatalf("VocabSize = %d", c.VocabSize())
	}
	// IDs in first-appearance order
	for i, w := range []string{"a", "b", "c", "d"} {
		if got := c.IDToWord(uint32(i)); got != w {
			t.Errorf("IDToWord(%d) = %q, want %q", i, got, w)
		}
	}
	doc, err := c.GetDoc(1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(doc, []uint32{1, 2, 3}) {
		t.Errorf("doc 1 = %v", doc)
	}
}

func TestWordDFCountsDocumentsOnce(t *testing.T) {
	c := buildInMemory(t, "a a a b", "a c", "c c")

	df := c.WordDF()
	// a appears in 2 docs despite 4 occurrences; b in 1; c in 2.
	want := []uint32{2, 1, 2}
	if !reflect.DeepEqual(df, want) {
		t.Errorf("WordDF = %v, want %v", df, want)
	}
}

func TestDiskModeMatchesInMemory(t *testing.T) {
	texts := []string{"the quick brown fox", "jumps over the lazy dog", "", "the end"}
	mem := buildInMemory(t, texts...)
	disk := buildOnDisk(t, 2, false, texts...)

	if mem.NumDocs() != disk.NumDocs() {
		t.Fatalf("doc counts differ: %d vs %d", mem.NumDocs(), disk.NumDocs())
	}
	for d := 0; d < mem.NumDocs(); d++ {
		want, err := mem.GetDoc(uint32(d))
		if err != nil {
			t.Fatal(err)
		}
		// Read twice so both the miss and the hit path are exercised under
		// the size-2 cache.
		for pass := 0; pass < 2; pass++ {
			got, err := disk.GetDoc(uint32(d))
			if err != nil {
				t.Fatalf("disk GetDoc(%d): %v", d, err)
			}
			if len(got) != len(want) {
				t.Fatalf("doc %d length differs: %d vs %d", d, len(got), len(want))
			}
			if len(want) > 0 && !reflect.DeepEqual(got, want) {
				t.Errorf("doc %d = %v, want %v", d, got, want)
			}
		}
	}
}

func TestPreloadFillsCache(t *testing.T) {
	disk := buildOnDisk(t, 10, true, "a b", "c d", "e f")

	if got := disk.cache.Len(); got != 3 {
		t.Errorf("cache holds %d documents after preload, want 3", got)
	}
	for d := uint32(0); d < 3; d++ {
		if _, err := disk.GetDoc(d); err != nil {
			t.Fatalf("GetDoc(%d): %v", d, err)
		}
	}
}

func TestOpenDocReader(t *testing.T) {
	texts := []string{"alpha beta gamma", "delta epsilon"}
	for _, inMem := range []bool{true, false} {
		var c *Corpus
		if inMem {
			c = buildInMemory(t, texts...)
		} else {
			c = buildOnDisk(t, 1, false, texts...)
		}

		rd, err := c.OpenDocReader()
		if err != nil {
			t.Fatalf("OpenDocReader (inMem=%v): %v", inMem, err)
		}
		for d := uint32(0); d < uint32(c.NumDocs()); d++ {
			want, _ := c.GetDoc(d)
			got, err := rd.ReadDoc(d)
			if err != nil {
				t.Fatalf("ReadDoc(%d): %v", d, err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ReadDoc(%d) = %v, want %v", d, got, want)
			}
		}
		if err := rd.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	}
}

func TestEmptyCorpus(t *testing.T) {
	c := buildInMemory(t)
	if c.NumDocs() != 0 {
		t.Errorf("NumDocs = %d", c.NumDocs())
	}
	if c.VocabSize() != 0 {
		t.Errorf("VocabSize = %d", c.VocabSize())
	}
}
