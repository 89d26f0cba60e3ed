// Package corpus holds the ID-encoded document collection the miners read:
// the dictionary, the per-word document frequencies, and the documents
// themselves, either memory-resident or served from a binary file through a
// bounded cache.
package corpus

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cognicore/phrasemine/pkg/phrasemine/ingest"
	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
	"github.com/cognicore/phrasemine/pkg/phrasemine/mine"
)

// DefaultBinPath is where the disk-backed corpus is serialized.
const DefaultBinPath = "corpus_data.bin"

// Options configures corpus construction.
type Options struct {
	InMemory  bool   // keep all documents resident, skip the bin file
	Preload   bool   // in disk mode, populate the cache during load
	CacheSize int    // max cached documents in disk mode
	BinPath   string // defaults to DefaultBinPath
	Log       *log.Logger
}

// Corpus is an immutable ID-encoded document collection.
type Corpus struct {
	idToWord   []string
	wordToID   map[string]uint32
	wordDF     []uint32
	filePaths  []string
	docLengths []uint32

	inMemory bool
	docs     [][]uint32 // in-memory mode only

	binPath    string
	binFile    *os.File
	docOffsets []int64
	cache      *lru.Cache[uint32, []uint32]

	log *log.Logger
}

// Build encodes tokenized documents into a corpus. In disk mode the encoded
// documents are streamed to the bin file as they are produced so peak memory
// stays bounded by a single document.
func Build(docs []ingest.RawDoc, opts Options) (*Corpus, error) {
	if opts.BinPath == "" {
		opts.BinPath = DefaultBinPath
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 1000
	}
	if opts.Log == nil {
		opts.Log = log.Default()
	}

	c := &Corpus{
		wordToID: make(map[string]uint32),
		inMemory: opts.InMemory,
		binPath:  opts.BinPath,
		log:      opts.Log,
	}

	var out *os.File
	if !c.inMemory {
		var err error
		out, err = os.Create(c.binPath)
		if err != nil {
			return nil, fmt.Errorf("create corpus bin file: %w", err)
		}
		cache, err := lru.New[uint32, []uint32](opts.CacheSize)
		if err != nil {
			return nil, err
		}
		c.cache = cache
	}

	// wordLastDoc lets each word count toward the DF of a document only
	// once, without a per-document set.
	var wordLastDoc []uint32
	var offset int64

	for i, d := range docs {
		c.filePaths = append(c.filePaths, d.Path)
		encoded := make([]uint32, 0, len(d.Tokens))

		for _, w := range d.Tokens {
			id, ok := c.wordToID[w]
			if !ok {
				id = uint32(len(c.idToWord))
				c.wordToID[w] = id
				c.idToWord = append(c.idToWord, w)
				c.wordDF = append(c.wordDF, 0)
				wordLastDoc = append(wordLastDoc, 0)
			}
			encoded = append(encoded, id)

			if wordLastDoc[id] != uint32(i)+1 {
				c.wordDF[id]++
				wordLastDoc[id] = uint32(i) + 1
			}
		}

		c.docLengths = append(c.docLengths, uint32(len(encoded)))

		if c.inMemory {
			c.docs = append(c.docs, encoded)
			continue
		}

		c.docOffsets = append(c.docOffsets, offset)
		buf := make([]byte, 4*len(encoded))
		for j, id := range encoded {
			binary.LittleEndian.PutUint32(buf[4*j:], id)
		}
		if _, err := out.Write(buf); err != nil {
			out.Close()
			return nil, fmt.Errorf("write corpus bin file: %w", err)
		}
		offset += int64(len(buf))

		if opts.Preload && c.cache.Len() < opts.CacheSize {
			c.cache.Add(uint32(i), encoded)
		}
	}

	if !c.inMemory {
		if err := out.Close(); err != nil {
			return nil, fmt.Errorf("close corpus bin file: %w", err)
		}
		f, err := os.Open(c.binPath)
		if err != nil {
			return nil, fmt.Errorf("reopen corpus bin file: %w", err)
		}
		c.binFile = f
	}

	c.log.Info("corpus built",
		"docs", len(c.docLengths), "vocab", len(c.idToWord), "in_memory", c.inMemory)
	return c, nil
}

// NumDocs returns the number of documents.
func (c *Corpus) NumDocs() int { return len(c.docLengths) }

// DocLength returns the token count of a document.
func (c *Corpus) DocLength(docID uint32) uint32 { return c.docLengths[docID] }

// WordDF returns the per-word document frequency table.
func (c *Corpus) WordDF() []uint32 { return c.wordDF }

// InMemory reports whether all documents are memory resident.
func (c *Corpus) InMemory() bool { return c.inMemory }

// VocabSize returns the number of distinct words.
func (c *Corpus) VocabSize() int { return len(c.idToWord) }

// IDToWord renders a token ID back to its word.
func (c *Corpus) IDToWord(id uint32) string {
	if int(id) >= len(c.idToWord) {
		return ""
	}
	return c.idToWord[id]
}

// FilePaths returns the source path of every document, indexed by DocID.
func (c *Corpus) FilePaths() []string { return c.filePaths }

// GetDoc returns a document's token sequence. Disk mode consults the bounded
// cache and reads through on a miss; the returned slice must not be mutated.
func (c *Corpus) GetDoc(docID uint32) ([]uint32, error) {
	if c.inMemory {
		return c.docs[docID], nil
	}
	if doc, ok := c.cache.Get(docID); ok {
		return doc, nil
	}
	doc, err := c.readDocAt(c.binFile, docID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(docID, doc)
	return doc, nil
}

func (c *Corpus) readDocAt(r *os.File, docID uint32) ([]uint32, error) {
	length := int(c.docLengths[docID])
	buf := make([]byte, 4*length)
	n, err := r.ReadAt(buf, c.docOffsets[docID])
	if err != nil || n != len(buf) {
		return nil, fmt.Errorf("read doc %d (%d of %d bytes): %w", docID, n, len(buf), err)
	}
	doc := make([]uint32, length)
	for i := range doc {
		doc[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return doc, nil
}

// OpenDocReader returns a reader with a private file handle for high-rate
// concurrent reads that must not contend on the shared cache. The in-memory
// corpus returns a reader over the resident documents.
func (c *Corpus) OpenDocReader() (mine.DocReader, error) {
	if c.inMemory {
		return memReader{c}, nil
	}
	f, err := os.Open(c.binPath)
	if err != nil {
		return nil, fmt.Errorf("open corpus bin file: %w", err)
	}
	return &diskReader{c: c, f: f}, nil
}

// Close releases the bin file and removes it from disk. The in-memory corpus
// has nothing to release.
func (c *Corpus) Close() error {
	if c.inMemory {
		return nil
	}
	if c.binFile != nil {
		c.binFile.Close()
		c.binFile = nil
	}
	if err := os.Remove(c.binPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type memReader struct{ c *Corpus }

func (r memReader) ReadDoc(docID uint32) ([]uint32, error) {
	if int(docID) >= len(r.c.docs) {
		return nil, internalerr.ErrNotFound
	}
	return r.c.docs[docID], nil
}

func (r memReader) Close() error { return nil }

type diskReader struct {
	c *Corpus
	f *os.File
}

func (r *diskReader) ReadDoc(docID uint32) ([]uint32, error) {
	return r.c.readDocAt(r.f, docID)
}

func (r *diskReader) Close() error { return r.f.Close() }
