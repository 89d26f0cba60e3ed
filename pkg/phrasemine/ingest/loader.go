package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// RawDoc is one tokenized input document before ID encoding.
type RawDoc struct {
	Path   string
	Tokens []string
}

// Loader discovers and tokenizes input documents from a directory tree or a
// CSV file.
type Loader struct {
	Tokenizer *Tokenizer
	Mask      string  // "", "*", "*.<ext>" or an exact filename
	Sampling  float64 // fraction of inputs to keep, (0,1]
	Threads   int     // tokenization workers, 0 = GOMAXPROCS
	Log       *log.Logger
}

// LoadDirectory walks a directory recursively, applies the file mask and the
// sampling fraction, and tokenizes every matching file. Files that cannot be
// read are skipped with a warning. Paths are processed in sorted order so
// full (sampling == 1) runs are deterministic.
func (l *Loader) LoadDirectory(root string) ([]RawDoc, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			l.Log.Warn("skipping unreadable entry", "path", path, "err", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if l.matchMask(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan directory %s: %w", root, err)
	}
	sort.Strings(paths)

	total := len(paths)
	paths = samplePaths(paths, l.Sampling)
	l.Log.Info("directory scan complete", "found", total, "processing", len(paths), "mask", l.maskLabel())

	docs := make([]RawDoc, len(paths))
	readable := make([]bool, len(paths))
	g := new(errgroup.Group)
	g.SetLimit(l.workerCount())
	for i, p := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(p)
			if err != nil {
				l.Log.Warn("skipping unreadable file", "path", p, "err", err)
				return nil
			}
			readable[i] = true
			text := DecodeBytes(data)
			ext := strings.ToLower(filepath.Ext(p))
			if ext == ".html" || ext == ".htm" {
				text = ExtractHTMLText(text)
			}
			docs[i] = RawDoc{Path: p, Tokens: l.Tokenizer.Tokenize(text)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	kept := docs[:0]
	for i, d := range docs {
		if readable[i] {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

// LoadCSV reads a delimited file and turns every record into one document,
// joining all fields of the record with single spaces. Quoted fields,
// embedded delimiters and doubled quotes follow standard CSV rules. A
// delimiter of '\n' treats each non-empty line as one document.
func (l *Loader) LoadCSV(path string, delimiter rune) ([]RawDoc, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	var rows []string
	if delimiter == '\n' {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		for _, line := range strings.Split(DecodeBytes(data), "\n") {
			if line = strings.TrimRight(line, "\r"); line != "" {
				rows = append(rows, line)
			}
		}
	} else {
		r := csv.NewReader(f)
		r.Comma = delimiter
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		for lineNo := 1; ; lineNo++ {
			record, err := r.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				l.Log.Warn("skipping malformed csv row", "line", lineNo, "err", err)
				continue
			}
			row := strings.TrimSpace(strings.Join(record, " "))
			if row != "" {
				rows = append(rows, row)
			}
		}
	}

	rows = sampleRows(rows, l.Sampling)
	l.Log.Info("csv load complete", "rows", len(rows))

	docs := make([]RawDoc, len(rows))
	g := new(errgroup.Group)
	g.SetLimit(l.workerCount())
	for i, row := range rows {
		g.Go(func() error {
			docs[i] = RawDoc{Path: fmt.Sprintf("row_%d", i), Tokens: l.Tokenizer.Tokenize(row)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (l *Loader) workerCount() int {
	if l.Threads > 0 {
		return l.Threads
	}
	return runtime.GOMAXPROCS(0)
}

func (l *Loader) matchMask(name string) bool {
	mask := l.Mask
	switch {
	case mask == "" || mask == "*":
		return true
	case strings.HasPrefix(mask, "*."):
		return strings.EqualFold(filepath.Ext(name), mask[1:])
	default:
		return name == mask
	}
}

func (l *Loader) maskLabel() string {
	if l.Mask == "" {
		return "*"
	}
	return l.Mask
}

// samplePaths keeps a random fraction of the inputs. At sampling == 1 the
// input order is preserved; below 1 the set is shuffled first so the sample
// is unbiased.
func samplePaths(paths []string, sampling float64) []string {
	if sampling >= 1.0 || len(paths) == 0 {
		return paths
	}
	rand.Shuffle(len(paths), func(i, j int) { paths[i], paths[j] = paths[j], paths[i] })
	n := int(float64(len(paths)) * sampling)
	if n > len(paths) {
		n = len(paths)
	}
	return paths[:n]
}

func sampleRows(rows []string, sampling float64) []string {
	if sampling >= 1.0 || len(rows) == 0 {
		return rows
	}
	rand.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })
	n := int(float64(len(rows)) * sampling)
	if n > len(rows) {
		n = len(rows)
	}
	return rows[:n]
}
