// Package results renders mined phrases into the result CSV and into
// store rows.
package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// Renderer maps token IDs and document IDs back to human-readable form.
type Renderer interface {
	IDToWord(id uint32) string
	FilePaths() []string
}

// maxExampleFiles bounds the example_files column.
const maxExampleFiles = 2

// Render formats one phrase for output: the space-joined words and the
// pipe-joined example file list.
func Render(p mine.Phrase, r Renderer) (phrase, examples string) {
	words := make([]string, 0, len(p.Tokens))
	for _, t := range p.Tokens {
		if w := r.IDToWord(t); w != "" {
			words = append(words, w)
		}
	}

	paths := r.FilePaths()
	seen := make(map[uint32]struct{})
	var files []string
	for _, o := range p.Occs {
		if _, ok := seen[o.DocID]; ok {
			continue
		}
		seen[o.DocID] = struct{}{}
		if int(o.DocID) < len(paths) {
			files = append(files, paths[o.DocID])
			if len(files) >= maxExampleFiles {
				break
			}
		}
	}
	return strings.Join(words, " "), strings.Join(files, "|")
}

// WriteCSV writes phrases to path with the header
// phrase,freq,length,example_files.
func WriteCSV(path string, phrases []mine.Phrase, r Renderer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create results csv %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"phrase", "freq", "length", "example_files"}); err != nil {
		return err
	}
	for _, p := range phrases {
		phrase, examples := Render(p, r)
		row := []string{
			phrase,
			strconv.Itoa(p.Support),
			strconv.Itoa(len(p.Tokens)),
			examples,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
