package bloomspan

import (
	"context"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// coverage tracks which corpus positions already belong to an emitted phrase,
// one bitmap per document, allocated lazily.
type coverage struct {
	docs []*roaring.Bitmap
}

func newCoverage(numDocs int) *coverage {
	return &coverage{docs: make([]*roaring.Bitmap, numDocs)}
}

func (cv *coverage) covered(o mine.Occurrence) bool {
	bm := cv.docs[o.DocID]
	return bm != nil && bm.Contains(o.Pos)
}

func (cv *coverage) mark(o mine.Occurrence, length uint32, docLen uint32) {
	bm := cv.docs[o.DocID]
	if bm == nil {
		bm = roaring.New()
		cv.docs[o.DocID] = bm
	}
	for i := uint32(0); i < length && o.Pos+i < docLen; i++ {
		bm.Add(o.Pos + i)
	}
}

// expand grows each candidate rightward to its maximal phrase. Candidates are
// visited in descending score order so the strongest phrases claim positions
// first; later candidates whose every occurrence is already covered are
// shadowed and skipped.
func expand(ctx context.Context, c mine.Corpus, candidates []mine.Phrase, p mine.Params) ([]mine.Phrase, error) {
	sort.SliceStable(candidates, func(i, j int) bool {
		si := candidates[i].Support * len(candidates[i].Tokens)
		sj := candidates[j].Support * len(candidates[j].Tokens)
		if si != sj {
			return si > sj
		}
		return candidates[i].Support > candidates[j].Support
	})

	cov := newCoverage(c.NumDocs())
	var phrases []mine.Phrase

	for i := range candidates {
		if ctx.Err() != nil {
			// Interrupted: hand back what has been mined so far.
			break
		}
		cand := &candidates[i]

		allCovered := true
		for _, o := range cand.Occs {
			if !cov.covered(o) {
				allCovered = false
				break
			}
		}
		if allCovered {
			continue
		}

		if err := growRight(c, cand, p.MinDocs); err != nil {
			return nil, err
		}

		closed, err := backwardClosed(c, cand)
		if err != nil {
			return nil, err
		}
		if !closed {
			// A longer phrase with the same support exists to the left.
			continue
		}

		// Mark coverage even when the length filter drops the phrase, so a
		// shadowed shorter candidate cannot resurface it later.
		for _, o := range cand.Occs {
			cov.mark(o, uint32(len(cand.Tokens)), c.DocLength(o.DocID))
		}

		if len(cand.Tokens) >= p.MinLen {
			phrases = append(phrases, *cand)
		}
	}
	return phrases, nil
}

// growRight repeatedly extends the candidate by the next token that keeps the
// most distinct documents, as long as that majority stays at or above
// minDocs. Ties resolve to the smaller token ID so runs are repeatable.
func growRight(c mine.Corpus, cand *mine.Phrase, minDocs int) error {
	for {
		buckets := make(map[uint32][]mine.Occurrence)
		for _, o := range cand.Occs {
			doc, err := c.GetDoc(o.DocID)
			if err != nil {
				return err
			}
			np := o.Pos + uint32(len(cand.Tokens))
			if np < uint32(len(doc)) {
				buckets[doc[np]] = append(buckets[doc[np]], o)
			}
		}

		bestSupport := 0
		var bestWord uint32
		for word, occs := range buckets {
			uniqueDocs := make(map[uint32]struct{}, len(occs))
			for _, o := range occs {
				uniqueDocs[o.DocID] = struct{}{}
			}
			n := len(uniqueDocs)
			if n < minDocs {
				continue
			}
			if n > bestSupport || (n == bestSupport && word < bestWord) {
				bestSupport = n
				bestWord = word
			}
		}

		if bestSupport == 0 {
			return nil
		}
		cand.Tokens = append(cand.Tokens, bestWord)
		cand.Occs = buckets[bestWord]
		cand.Support = bestSupport
	}
}

// backwardClosed reports whether no single token precedes every occurrence.
// The check samples the predecessor of the first occurrence and verifies the
// rest against it; when the first occurrence sits at document start the
// phrase counts as closed without further inspection.
func backwardClosed(c mine.Corpus, cand *mine.Phrase) (bool, error) {
	if len(cand.Occs) == 0 {
		return true, nil
	}
	first := cand.Occs[0]
	if first.Pos == 0 {
		return true, nil
	}
	doc, err := c.GetDoc(first.DocID)
	if err != nil {
		return false, err
	}
	prev := doc[first.Pos-1]

	for _, o := range cand.Occs {
		if o.Pos == 0 {
			return true, nil
		}
		d, err := c.GetDoc(o.DocID)
		if err != nil {
			return false, err
		}
		if d[o.Pos-1] != prev {
			return true, nil
		}
	}
	return false, nil
}
