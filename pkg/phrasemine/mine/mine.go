// Package mine defines the shared data model for the phrase mining
// algorithms: occurrences, phrases, mining parameters and the Algorithm
// interface the engine dispatches on.
package mine

import "context"

// Occurrence identifies one match position inside the corpus.
type Occurrence struct {
	DocID uint32
	Pos   uint32
}

// Phrase is a mined token sequence together with the positions where it
// occurs. Support is a document count for the bloomspan path and a position
// count for the BIDE/CloSpan miners; the two notions are intentionally not
// unified because the closure checks depend on which one is used.
type Phrase struct {
	Tokens  []uint32
	Occs    []Occurrence
	Support int
}

// Params carries the knobs shared by all algorithms.
type Params struct {
	MinDocs    int
	NGrams     int
	MinLen     int
	MemLimitMB int
	Threads    int
	TempDir    string
}

// Corpus is the read-only view of an ID-encoded document collection that the
// miners operate on.
type Corpus interface {
	NumDocs() int
	DocLength(docID uint32) uint32
	// GetDoc returns the token sequence of a document. In disk-backed mode a
	// failed read is returned as an error and aborts the calling pass.
	GetDoc(docID uint32) ([]uint32, error)
	WordDF() []uint32
	InMemory() bool
	// OpenDocReader returns a reader with its own file handle so parallel
	// workers can issue positional reads without sharing a descriptor. The
	// in-memory corpus returns a reader backed by the resident documents.
	OpenDocReader() (DocReader, error)
}

// DocReader reads documents outside the shared cache.
type DocReader interface {
	ReadDoc(docID uint32) ([]uint32, error)
	Close() error
}

// Algorithm is a phrase mining strategy over an encoded corpus.
type Algorithm interface {
	// Name reports the human-readable algorithm name, for logs.
	Name() string
	// Mine reads everything it needs from the corpus and returns the mined
	// phrases. Cancelling the context stops the pass early; phrases found up
	// to that point are returned with a nil error.
	Mine(ctx context.Context, c Corpus, p Params) ([]Phrase, error)
}
