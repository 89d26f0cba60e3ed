package bloomspan

import (
	"bufio"
	"container/heap"
	"fmt"
	"io"
	"os"

	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// chunkReader streams sorted seed records back from one run file.
type chunkReader struct {
	f   *os.File
	rd  *bufio.Reader
	cur seedRecord
}

func openChunkReader(path string) (*chunkReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open chunk %s: %w", path, err)
	}
	return &chunkReader{f: f, rd: bufio.NewReaderSize(f, 1<<16)}, nil
}

// next advances to the following record. Returns false on clean EOF.
func (c *chunkReader) next() (bool, error) {
	err := c.cur.readFrom(c.rd)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *chunkReader) close() error { return c.f.Close() }

// mergeHeap is a min-heap over chunk readers keyed by the seed ordering.
type mergeHeap []*chunkReader

func (h mergeHeap) Len() int           { return len(h) }
func (h mergeHeap) Less(i, j int) bool { return h[i].cur.less(&h[j].cur) }
func (h mergeHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x any)        { *h = append(*h, x.(*chunkReader)) }
func (h *mergeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeChunks runs a k-way merge over the sorted run files, groups records
// with identical token sequences and keeps the groups whose distinct-document
// count clears minDocs.
func mergeChunks(chunkFiles []string, minDocs int) ([]mine.Phrase, error) {
	readers := make([]*chunkReader, 0, len(chunkFiles))
	defer func() {
		for _, r := range readers {
			r.close()
		}
	}()

	h := make(mergeHeap, 0, len(chunkFiles))
	for _, path := range chunkFiles {
		r, err := openChunkReader(path)
		if err != nil {
			return nil, err
		}
		readers = append(readers, r)
		ok, err := r.next()
		if err != nil {
			return nil, err
		}
		if ok {
			h = append(h, r)
		}
	}
	heap.Init(&h)

	var candidates []mine.Phrase
	for h.Len() > 0 {
		rep := h[0].cur
		var occs []mine.Occurrence
		uniqueDocs := make(map[uint32]struct{})

		for h.Len() > 0 && h[0].cur.sameTokens(&rep) {
			r := h[0]
			occs = append(occs, mine.Occurrence{DocID: r.cur.docID, Pos: r.cur.pos})
			uniqueDocs[r.cur.docID] = struct{}{}

			ok, err := r.next()
			if err != nil {
				return nil, err
			}
			if ok {
				heap.Fix(&h, 0)
			} else {
				heap.Pop(&h)
			}
		}

		if len(uniqueDocs) >= minDocs {
			candidates = append(candidates, mine.Phrase{
				Tokens:  append([]uint32(nil), rep.tokens()...),
				Occs:    occs,
				Support: len(uniqueDocs),
			})
		}
	}
	return candidates, nil
}

// groupBuffer is the in-memory counterpart of mergeChunks: a linear scan over
// an already-sorted seed buffer.
func groupBuffer(buf []seedRecord, minDocs int) []mine.Phrase {
	var candidates []mine.Phrase
	for i := 0; i < len(buf); {
		rep := &buf[i]
		var occs []mine.Occurrence
		uniqueDocs := make(map[uint32]struct{})

		for i < len(buf) && buf[i].sameTokens(rep) {
			occs = append(occs, mine.Occurrence{DocID: buf[i].docID, Pos: buf[i].pos})
			uniqueDocs[buf[i].docID] = struct{}{}
			i++
		}

		if len(uniqueDocs) >= minDocs {
			candidates = append(candidates, mine.Phrase{
				Tokens:  append([]uint32(nil), rep.tokens()...),
				Occs:    occs,
				Support: len(uniqueDocs),
			})
		}
	}
	return candidates
}
