// Package node implements the tree-bitmap node (specification component
// C3): two small bitmaps per node recording which bit-spans terminate a
// stored prefix and which nibbles have a child subtrie, mutated via
// word-sized compare-and-swap so many writers can update a node
// concurrently without a lock.
package node

import (
	"sync/atomic"

	"github.com/bits-and-blooms/bitset"
)

// TrieNode is one level of the multiway trie for a stride of width s
// (s in {3,4,5}).
//
//   - pfxBits has 2^(s+1)-2 meaningful bits (<=62 for s=5), indexed by
//     BitSpan.Index(): bit set <=> a prefix with that bit-span terminates
//     at this node.
//   - ptrBits has 2^s meaningful bits (<=32 for s=5), indexed by a full
//     s-bit nibble: bit set <=> a child node exists for that nibble.
//
// Both fields fit in one machine word, so they are mutated via CAS
// directly on the word rather than through a lock, per spec.md §4.3.
type TrieNode struct {
	pfxBits atomic.Uint64
	ptrBits atomic.Uint32
	Stride  uint8
}

// New creates an empty node for the given stride width.
func New(strideWidth uint8) *TrieNode {
	return &TrieNode{Stride: strideWidth}
}

// LookupExact tests whether a prefix terminates at exactly this bit-span.
func (n *TrieNode) LookupExact(span BitSpan) bool {
	if span.Len == 0 {
		return false // the default route is never stored in pfxbitarr
	}
	return n.pfxBits.Load()&(uint64(1)<<span.Index()) != 0
}

// LookupLongest scans bit-spans from length span.Len down to 1, returning
// the first (longest) one whose bit is set.
func (n *TrieNode) LookupLongest(span BitSpan) (match BitSpan, ok bool) {
	bits := n.pfxBits.Load()
	cur := span
	for cur.Len >= 1 {
		if bits&(uint64(1)<<cur.Index()) != 0 {
			return cur, true
		}
		if cur.Len == 1 {
			break
		}
		cur = cur.parent()
	}
	return BitSpan{}, false
}

// EnumerateLessSpecifics yields every set pfxbitarr bit lying on the
// prefix-path of span, ordered most-general-first (ascending length),
// per spec.md §9's documented ordering choice.
func (n *TrieNode) EnumerateLessSpecifics(span BitSpan) []BitSpan {
	bits := n.pfxBits.Load()
	var hits []BitSpan
	cur := span
	for cur.Len >= 1 {
		if bits&(uint64(1)<<cur.Index()) != 0 {
			hits = append(hits, cur)
		}
		if cur.Len == 1 {
			break
		}
		cur = cur.parent()
	}
	// hits were collected most-specific-first; reverse for ascending length.
	for i, j := 0, len(hits)-1; i < j; i, j = i+1, j-1 {
		hits[i], hits[j] = hits[j], hits[i]
	}
	return hits
}

// EnumerateMoreSpecifics yields every set pfxbitarr bit whose value
// extends span (i.e. every bit-span strictly more specific than span and
// covered by it), in index order (unspecified stable order per spec.md
// §4.5's tie-break note).
func (n *TrieNode) EnumerateMoreSpecifics(span BitSpan) []BitSpan {
	bits := n.pfxBits.Load()
	var hits []BitSpan
	for length := span.Len + 1; length <= 5; length++ {
		shift := length - span.Len
		base := span.Bits << shift
		width := uint32(1) << shift
		for v := uint32(0); v < width; v++ {
			cand := BitSpan{Bits: base + v, Len: length}
			if bits&(uint64(1)<<cand.Index()) != 0 {
				hits = append(hits, cand)
			}
		}
	}
	return hits
}

// HasChild reports whether a child subtrie exists for the given s-bit
// nibble.
func (n *TrieNode) HasChild(nibble uint8) bool {
	return n.ptrBits.Load()&(uint32(1)<<nibble) != 0
}

// ChildNibbles returns every nibble with a set ptrbitarr bit lying
// strictly under span (extends it), used when a more-specifics scan must
// recurse into child subtries (spec.md §4.5, the sole case where the trie
// rather than the length-indexed store drives enumeration).
func (n *TrieNode) ChildNibbles(span BitSpan) []uint8 {
	ptr := n.ptrBits.Load()
	var out []uint8
	shift := n.Stride - span.Len
	base := span.Bits << shift
	width := uint32(1) << shift
	for v := uint32(0); v < width; v++ {
		nibble := uint8(base + v)
		if ptr&(uint32(1)<<nibble) != 0 {
			out = append(out, nibble)
		}
	}
	return out
}

// AllChildNibbles returns every nibble with a child, unconditionally.
func (n *TrieNode) AllChildNibbles() []uint8 {
	ptr := n.ptrBits.Load()
	var out []uint8
	for nibble := uint8(0); nibble < (uint8(1) << n.Stride); nibble++ {
		if ptr&(uint32(1)<<nibble) != 0 {
			out = append(out, nibble)
		}
		if nibble == 255 {
			break
		}
	}
	return out
}

// AllPrefixSpans returns every occupied bit-span in this node, used by
// dump/serialization (cold path). Backed by bitset.BitSet rather than a
// hand-rolled scan loop, matching the teacher's (gaissmai/bart) use of
// bits-and-blooms/bitset for occupancy enumeration.
func (n *TrieNode) AllPrefixSpans() []BitSpan {
	bits := n.pfxBits.Load()
	bs := bitset.From([]uint64{bits})
	var out []BitSpan
	for i, ok := bs.NextSet(0); ok; i, ok = bs.NextSet(i + 1) {
		out = append(out, fromIndex(uint8(i)))
	}
	return out
}

// SetPrefix atomically sets the pfxbitarr bit for span, retrying the CAS
// until it observes its own bit set (by itself or a racing writer).
// Returns true if the bit was already set (i.e. this is a re-insert of an
// already-occupied bit-span).
func (n *TrieNode) SetPrefix(span BitSpan) (existed bool) {
	mask := uint64(1) << span.Index()
	for {
		old := n.pfxBits.Load()
		if old&mask != 0 {
			return true
		}
		if n.pfxBits.CompareAndSwap(old, old|mask) {
			return false
		}
	}
}

// SetChild atomically sets the ptrbitarr bit for nibble. Returns true if
// the bit was already set.
func (n *TrieNode) SetChild(nibble uint8) (existed bool) {
	mask := uint32(1) << nibble
	for {
		old := n.ptrBits.Load()
		if old&mask != 0 {
			return true
		}
		if n.ptrBits.CompareAndSwap(old, old|mask) {
			return false
		}
	}
}

// IsEmpty reports whether the node carries no prefixes and no children.
func (n *TrieNode) IsEmpty() bool {
	return n.pfxBits.Load() == 0 && n.ptrBits.Load() == 0
}
