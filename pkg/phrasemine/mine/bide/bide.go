// Package bide implements the BIDE+ closed contiguous-phrase miner: a
// depth-first search over projected occurrence lists with backward-extension
// pruning and forward-closure emission.
//
// Support here counts positions, not distinct documents. The closure checks
// depend on that definition; it is intentionally different from the
// bloomspan path.
package bide

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// Miner is the BIDE+ algorithm.
type Miner struct {
	log *log.Logger
}

// New creates the BIDE+ miner.
func New(logger *log.Logger) *Miner {
	if logger == nil {
		logger = log.Default()
	}
	return &Miner{log: logger}
}

// Name implements mine.Algorithm.
func (m *Miner) Name() string { return "bide" }

type supportInfo struct {
	count   int
	matches []mine.Occurrence
}

// Mine implements mine.Algorithm. Every occurrence records the position of
// the pattern's last token.
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
			// Some item precedes every occurrence: a longer closed pattern
			// to the left absorbs this branch.
			return nil
		}

		extensions, err := projectForward(c, matches)
		if err != nil {
			return err
		}

		if len(patt) >= 1 && forwardClosed(len(matches), extensions) {
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
// pattern across all of its occurrences.
func backwardClosed(c mine.Corpus, patt []uint32, matches []mine.Occurrence) (bool, error) {
	if len(patt) == 0 || len(matches) == 0 {
		return true, nil
	}
	currentSup := len(matches)
	patternLen := uint32(len(patt))
	backCounts := make(map[uint32]int)

	for _, mt := range matches {
		if mt.Pos < patternLen {
			continue
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

// forwardClosed reports whether no single-token extension keeps the full
// support.
func forwardClosed(currentSup int, extensions map[uint32]*supportInfo) bool {
	for _, info := range extensions {
		if info.count == currentSup {
			return false
		}
	}
	return true
}

// projectForward buckets each occurrence under the token following it.
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

// scanSingletons builds the root projection: every token with all of its
// positions.
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

// sortedKeys fixes the DFS order so output is identical run to run.
func sortedKeys(m map[uint32]*supportInfo) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
