// Package clospan implements the CloSpan variant of the closed
// contiguous-phrase miner. It shares the projected-occurrence DFS shape of
// the BIDE+ miner with two differences: an occurrence at document start makes
// the backward check report closed immediately (no universal preceding item
// can exist), and emission is gated on the minimum phrase length rather than
// length one.
//
// Like BIDE+, support counts positions, not distinct documents.
package clospan

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// Miner is the CloSpan algorithm.
type Miner struct {
	log *log.Logger
}

// New creates the CloSpan miner.
func New(logger *log.Logger) *Miner {
	if logger == nil {
		logger = log.Default()
	}
	return &Miner{log: logger}
}

// Name implements mine.Algorithm.
func (m *Miner) Name() string { return "clospan" }

type supportInfo struct {
	count   int
	matches []mine.Occurrence
}

// Mine implements mine.Algorithm.
func (m *Miner) Mine(ctx context.Context, c mine.Corpus, p mine.Params) ([]mine.Phrase, error) {
	minSup := p.MinDocs
	var results []mine.Phrase

	var rec func(patt []uint32, matches []mine.Occurrence) error
	rec = func(patt []uint32, matches []mine.Occurrence) error {
		if ctx.Err() != nil {
			return nil
		}

		closed, err := backwardClosed(c, patt, matches)
		if err != nil {
			return err
		}
		if !closed {
			return nil
		}

		extensions, err := projectForward(c, matches)
		if err != nil {
			return err
		}

		if len(patt) >= p.MinLen && forwardClosed(len(matches), extensions) {
			results = append(results, mine.Phrase{
				Tokens:  append([]uint32(nil), patt...),
				Occs:    matches,
				Support: len(matches),
			})
		}

		for _, item := range sortedKeys(extensions) {
			info := extensions[item]
			if info.count >= minSup {
				patt = append(patt, item)
				if err := rec(patt, info.matches); err != nil {
					return err
				}
				patt = patt[:len(patt)-1]
			}
		}
		return nil
	}

	root, err := scanSingletons(c)
	if err != nil {
		return nil, err
	}
	for _, item := range sortedKeys(root) {
		info := root[item]
		if info.count >= minSup {
			if err := rec([]uint32{item}, info.matches); err != nil {
				return nil, err
			}
		}
	}

	m.log.Info("closed pattern mining complete", "patterns", len(results))
	return results, nil
}

// backwardClosed reports whether no single item immediately precedes the
// pattern across all occurrences. An occurrence whose pattern begins at
// document start settles the question: nothing can precede it, so the branch
// is closed and must not be pruned.
func backwardClosed(c mine.Corpus, patt []uint32, matches []mine.Occurrence) (bool, error) {
	if len(patt) == 0 || len(matches) == 0 {
		return true, nil
	}
	currentSup := len(matches)
	patternLen := uint32(len(patt))
	backCounts := make(map[uint32]int)

	for _, mt := range matches {
		if mt.Pos < patternLen {
			return true, nil
		}
		doc, err := c.GetDoc(mt.DocID)
		if err != nil {
			return false, err
		}
		prev := doc[mt.Pos-patternLen]
		backCounts[prev]++
		if backCounts[prev] == currentSup {
			return false, nil
		}
	}
	return true, nil
}

func forwardClosed(currentSup int, extensions map[uint32]*supportInfo) bool {
	for _, info := range extensions {
		if info.count == currentSup {
			return false
		}
	}
	return true
}

func projectForward(c mine.Corpus, matches []mine.Occurrence) (map[uint32]*supportInfo, error) {
	extensions := make(map[uint32]*supportInfo)
	for _, mt := range matches {
		doc, err := c.GetDoc(mt.DocID)
		if err != nil {
			return nil, err
		}
		nextPos := mt.Pos + 1
		if nextPos < uint32(len(doc)) {
			item := doc[nextPos]
			info := extensions[item]
			if info == nil {
				info = &supportInfo{}
				extensions[item] = info
			}
			info.count++
			info.matches = append(info.matches, mine.Occurrence{DocID: mt.DocID, Pos: nextPos})
		}
	}
	return extensions, nil
}

func scanSingletons(c mine.Corpus) (map[uint32]*supportInfo, error) {
	root := make(map[uint32]*supportInfo)
	for d := 0; d < c.NumDocs(); d++ {
		doc, err := c.GetDoc(uint32(d))
		if err != nil {
			return nil, err
		}
		for pos, item := range doc {
			info := root[item]
			if info == nil {
				info = &supportInfo{}
				root[item] = info
			}
			info.count++
			info.matches = append(info.matches, mine.Occurrence{DocID: uint32(d), Pos: uint32(pos)})
		}
	}
	return root, nil
}

func sortedKeys(m map[uint32]*supportInfo) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
