package bloomspan

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cognicore/phrasemine/pkg/phrasemine/internalerr"
)

// smallThreshold is the widest n-gram stored inline; wider seeds own a heap
// slice instead.
const smallThreshold = 16

// seedRecord is one n-gram occurrence harvested in Pass 2. Small n-grams use
// the inline array; the heap slice is only allocated past smallThreshold.
type seedRecord struct {
	docID uint32
	pos   uint32
	n     int32
	small [smallThreshold]uint32
	large []uint32
}

func newSeedRecord(docID, pos uint32, tokens []uint32) seedRecord {
	r := seedRecord{docID: docID, pos: pos, n: int32(len(tokens))}
	if len(tokens) > smallThreshold {
		r.large = append([]uint32(nil), tokens...)
	} else {
		copy(r.small[:], tokens)
	}
	return r
}

func (r *seedRecord) isLarge() bool { return r.n > smallThreshold }

// tokens returns a read-only view of the n-gram.
func (r *seedRecord) tokens() []uint32 {
	if r.isLarge() {
		return r.large
	}
	return r.small[:r.n]
}

// less orders records by (tokens lexicographic, doc, pos) — the ordering the
// chunk sort and the k-way merge both rely on.
func (r *seedRecord) less(other *seedRecord) bool {
	a, b := r.tokens(), other.tokens()
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	if r.docID != other.docID {
		return r.docID < other.docID
	}
	return r.pos < other.pos
}

func (r *seedRecord) sameTokens(other *seedRecord) bool {
	a, b := r.tokens(), other.tokens()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// writeTo serializes the record: doc_id u32, pos u32, n i32, is_large u8,
// then n token IDs, all little-endian.
func (r *seedRecord) writeTo(w io.Writer) error {
	buf := make([]byte, 13+4*int(r.n))
	binary.LittleEndian.PutUint32(buf[0:], r.docID)
	binary.LittleEndian.PutUint32(buf[4:], r.pos)
	binary.LittleEndian.PutUint32(buf[8:], uint32(r.n))
	if r.isLarge() {
		buf[12] = 1
	}
	for i, t := range r.tokens() {
		binary.LittleEndian.PutUint32(buf[13+4*i:], t)
	}
	_, err := w.Write(buf)
	return err
}

// readFrom deserializes one record. io.EOF at a record boundary is returned
// untouched so callers can detect a clean end of stream.
func (r *seedRecord) readFrom(rd io.Reader) error {
	var head [13]byte
	if _, err := io.ReadFull(rd, head[:]); err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return fmt.Errorf("%w: header: %v", internalerr.ErrCorruptChunk, err)
	}
	r.docID = binary.LittleEndian.Uint32(head[0:])
	r.pos = binary.LittleEndian.Uint32(head[4:])
	r.n = int32(binary.LittleEndian.Uint32(head[8:]))
	isLarge := head[12] != 0

	if r.n < 0 || (isLarge != (r.n > smallThreshold)) {
		return fmt.Errorf("%w: n=%d large=%v", internalerr.ErrCorruptChunk, r.n, isLarge)
	}

	body := make([]byte, 4*int(r.n))
	if _, err := io.ReadFull(rd, body); err != nil {
		return fmt.Errorf("%w: body: %v", internalerr.ErrCorruptChunk, err)
	}
	if isLarge {
		r.large = make([]uint32, r.n)
		for i := range r.large {
			r.large[i] = binary.LittleEndian.Uint32(body[4*i:])
		}
	} else {
		r.large = nil
		for i := 0; i < int(r.n); i++ {
			r.small[i] = binary.LittleEndian.Uint32(body[4*i:])
		}
	}
	return nil
}
