package bloomspan

import "sync/atomic"

// FNV-1a over whole tokens: each 32-bit ID is folded in as one 64-bit round.
const (
	fnvOffset uint64 = 0xCBF29CE484222325
	fnvPrime  uint64 = 0x100000001B3
)

func hashTokens(tokens []uint32) uint64 {
	h := fnvOffset
	for _, t := range tokens {
		h ^= uint64(t)
		h *= fnvPrime
	}
	return h
}

const (
	defaultFilterBytes uint64 = 512 << 20
	maxFilterBytes     uint64 = 2048 << 20
)

// countingFilter is an array of 8-bit saturating counters packed four per
// uint32 word so increments can run lock-free under CompareAndSwap. A cell
// value is a lower bound on the number of occurrences of all n-grams hashing
// to it; a cell below the support threshold proves every colliding n-gram is
// infrequent.
type countingFilter struct {
	words []uint32
	size  uint64 // number of 8-bit cells
}

// newCountingFilter sizes the filter at 20% of the memory limit, capped at
// 2 GiB, defaulting to 512 MiB when the limit is unbounded.
func newCountingFilter(memLimitMB int) *countingFilter {
	size := defaultFilterBytes
	if memLimitMB > 0 {
		size = uint64(memLimitMB) * 1024 * 1024 / 5
		if size > maxFilterBytes {
			size = maxFilterBytes
		}
	}
	return &countingFilter{
		words: make([]uint32, (size+3)/4),
		size:  size,
	}
}

// sizeMB returns the filter size in mebibytes, for logs.
func (f *countingFilter) sizeMB() uint64 { return f.size / (1024 * 1024) }

// Inc increments the cell for hash h, saturating at 255. Safe for concurrent
// use; relaxed ordering is sufficient because increments commute and the only
// cross-thread contract is the saturation ceiling.
func (f *countingFilter) Inc(h uint64) {
	idx := h % f.size
	word := &f.words[idx/4]
	shift := (idx % 4) * 8
	for {
		cur := atomic.LoadUint32(word)
		lane := (cur >> shift) & 0xFF
		if lane == 255 {
			return
		}
		next := (cur &^ (0xFF << shift)) | ((lane + 1) << shift)
		if atomic.CompareAndSwapUint32(word, cur, next) {
			return
		}
	}
}

// Count returns the cell value for hash h.
func (f *countingFilter) Count(h uint64) uint8 {
	idx := h % f.size
	cur := atomic.LoadUint32(&f.words[idx/4])
	return uint8(cur >> ((idx % 4) * 8))
}
