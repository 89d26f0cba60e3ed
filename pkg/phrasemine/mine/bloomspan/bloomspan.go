// Package bloomspan implements the default mining path: a counting-Bloom
// two-pass n-gram seed generator with external merge sort, followed by greedy
// rightward expansion into maximal backward-closed phrases.
package bloomspan

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/phrasemine/internal/memstat"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// DefaultTempDir holds seed run files between the collection pass and the
// merge.
const DefaultTempDir = "./miner_tmp"

// Miner is the Bloom n-gram seed generator plus greedy expander.
type Miner struct {
	log *log.Logger
}

// New creates the bloomspan miner.
func New(logger *log.Logger) *Miner {
	if logger == nil {
		logger = log.Default()
	}
	return &Miner{log: logger}
}

// Name implements mine.Algorithm.
func (m *Miner) Name() string { return "bloomspan" }

// Mine runs both Bloom passes, merges the surviving seeds into candidates and
// expands them into maximal phrases.
func (m *Miner) Mine(ctx context.Context, c mine.Corpus, p mine.Params) ([]mine.Phrase, error) {
	filter := newCountingFilter(p.MemLimitMB)
	m.log.Info("initializing bloom filter", "size_mb", filter.sizeMB())

	if err := m.estimateFrequencies(ctx, c, filter, p); err != nil {
		return nil, err
	}

	candidates, err := m.collectSeeds(c, filter, p)
	if err != nil {
		return nil, err
	}
	m.log.Info("candidates after merge", "count", len(candidates))

	phrases, err := expand(ctx, c, candidates, p)
	if err != nil {
		return nil, err
	}
	m.log.Info("mining complete", "phrases", len(phrases))
	return phrases, nil
}

// estimateFrequencies is Pass 1: every n-gram in the corpus bumps its
// saturating counter. Documents are shared across a bounded worker pool;
// disk-mode workers read through private file handles.
func (m *Miner) estimateFrequencies(ctx context.Context, c mine.Corpus, filter *countingFilter, p mine.Params) error {
	m.log.Info("bloom pass: estimating n-gram frequencies", "ngrams", p.NGrams)

	workers := p.Threads
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	numDocs := c.NumDocs()
	if workers > numDocs {
		workers = numDocs
	}
	if workers == 0 {
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	n := uint32(p.NGrams)

	for w := 0; w < workers; w++ {
		lo := numDocs * w / workers
		hi := numDocs * (w + 1) / workers
		g.Go(func() error {
			rd, err := c.OpenDocReader()
			if err != nil {
				return err
			}
			defer rd.Close()

			for d := lo; d < hi; d++ {
				docID := uint32(d)
				if c.DocLength(docID) < n {
					continue
				}
				doc, err := rd.ReadDoc(docID)
				if err != nil {
					return err
				}
				for pos := 0; pos+int(n) <= len(doc); pos++ {
					filter.Inc(hashTokens(doc[pos : pos+int(n)]))
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// collectSeeds is Pass 2 plus the merge: re-scan the corpus sequentially,
// keep the n-grams the filter and the DF table both admit, spill sorted runs
// when memory runs hot, and group the sorted stream into candidates.
func (m *Miner) collectSeeds(c mine.Corpus, filter *countingFilter, p mine.Params) ([]mine.Phrase, error) {
	m.log.Info("gathering n-gram seeds", "ngrams", p.NGrams)

	tempDir := p.TempDir
	if tempDir == "" {
		tempDir = DefaultTempDir
	}
	if !c.InMemory() {
		if err := os.MkdirAll(tempDir, 0o755); err != nil {
			return nil, fmt.Errorf("create temp dir %s: %w", tempDir, err)
		}
	}

	// The filter saturates at 255, so the support gate must clamp there too.
	gate := uint8(255)
	if p.MinDocs < 255 {
		gate = uint8(p.MinDocs)
	}
	wordDF := c.WordDF()
	n := p.NGrams

	var (
		buffer     []seedRecord
		chunkFiles []string
		chunkID    int
		passed     uint64
		rejected   uint64
	)

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		m.log.Info("flushing seeds to disk", "seeds", len(buffer), "rss_mb", memstat.RSSMB())
		sortSeeds(buffer)
		path := filepath.Join(tempDir, fmt.Sprintf("chunk_%d.bin", chunkID))
		chunkID++
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create chunk %s: %w", path, err)
		}
		w := bufio.NewWriterSize(f, 1<<16)
		for i := range buffer {
			if err := buffer[i].writeTo(w); err != nil {
				f.Close()
				return fmt.Errorf("write chunk %s: %w", path, err)
			}
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("flush chunk %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close chunk %s: %w", path, err)
		}
		chunkFiles = append(chunkFiles, path)
		buffer = buffer[:0]
		return nil
	}

	for d := 0; d < c.NumDocs(); d++ {
		docID := uint32(d)
		if !c.InMemory() && p.MemLimitMB > 0 &&
			memstat.RSSMB() >= uint64(float64(p.MemLimitMB)*0.75) {
			if err := flush(); err != nil {
				return nil, err
			}
		}

		if c.DocLength(docID) < uint32(n) {
			continue
		}
		doc, err := c.GetDoc(docID)
		if err != nil {
			return nil, err
		}

		for pos := 0; pos+n <= len(doc); pos++ {
			gram := doc[pos : pos+n]
			if filter.Count(hashTokens(gram)) < gate {
				rejected++
				continue
			}
			// The filter is probabilistic; verify each token's document
			// frequency to discard hash collisions.
			dfOK := true
			for _, t := range gram {
				if int(wordDF[t]) < p.MinDocs {
					dfOK = false
					break
				}
			}
			if !dfOK {
				rejected++
				continue
			}
			buffer = append(buffer, newSeedRecord(docID, uint32(pos), gram))
			passed++
		}
	}

	total := passed + rejected
	var reduction float64
	if total > 0 {
		reduction = 100 * float64(rejected) / float64(total)
	}
	m.log.Info("seed scan complete",
		"total", total, "accepted", passed, "rejected", rejected,
		"reduction_pct", fmt.Sprintf("%.1f", reduction))

	// The filter has served both passes; release it before the merge
	// allocates occurrence lists.
	filter.words = nil

	if c.InMemory() {
		sortSeeds(buffer)
		return groupBuffer(buffer, p.MinDocs), nil
	}

	if err := flush(); err != nil {
		return nil, err
	}
	candidates, err := mergeChunks(chunkFiles, p.MinDocs)
	if err != nil {
		return nil, err
	}
	if err := os.RemoveAll(tempDir); err != nil {
		m.log.Warn("temp dir cleanup failed", "dir", tempDir, "err", err)
	}
	return candidates, nil
}

func sortSeeds(buffer []seedRecord) {
	sort.Slice(buffer, func(i, j int) bool {
		return buffer[i].less(&buffer[j])
	})
}
