package store

import "github.com/rotonda-go/rib/internal/af"

// BitsForLevelFunc returns the cumulative number of address bits consumed
// by hashing through level k (0-indexed) for a node/prefix of length L,
// per spec.md §4.6. It must be monotone non-decreasing in k, satisfy
// bitsForLevel(L,0) > 0 for L > 0, and is expected to return 0 once k
// exceeds the configured maximum level (capping chain depth).
type BitsForLevelFunc func(length uint8, level int) uint8

// maxChainDepth bounds the number of chained bucket levels a single
// (length, address) pair can descend through before a lookup is
// considered a store invariant violation (spec.md §4.6: "≤ 26").
const maxChainDepth = 26

// DefaultBitsForLevel is the built-in bits_for_level table: four bits of
// the address are consumed per level, capped at length, so short
// prefixes get a perfect (collision-free) hash at level 0 and longer
// ones spill into additional chained levels.
func DefaultBitsForLevel(length uint8, level int) uint8 {
	if length == 0 {
		return 0
	}
	consumed := uint32(4) * uint32(level+1)
	if consumed > uint32(length) {
		return length
	}
	return uint8(consumed)
}

// levelSpan returns the [low, high) bit range consumed at (length, level):
// low is the cumulative bits consumed through level-1, high through level.
// ok is false once the table reports no further growth (chain exhausted).
// Level 0 is always valid even with a zero-width span: every length needs
// at least one base bucket to start its chain, including length 0 (the
// default route / root node), which has exactly one possible identity
// and so never needs to discriminate on any address bits at all.
func levelSpan(length uint8, level int, bitsFor BitsForLevelFunc) (low, high uint8, ok bool) {
	if level > 0 {
		low = bitsFor(length, level-1)
	}
	high = bitsFor(length, level)
	if level == 0 {
		return low, high, true
	}
	return low, high, high > low
}

// hashIndex computes idx = ((addr << low) >> (W - (high - low))) per
// spec.md §4.6, realized directly on the shared Bits128 container: since
// addr is always left-justified regardless of address family, the "mod
// W" wraparound in the original formula is unnecessary here -- Nibble
// already special-cases a zero-width extraction.
func hashIndex(addr af.Bits128, length uint8, level int, bitsFor BitsForLevelFunc) (idx int, width uint8, ok bool) {
	low, high, ok := levelSpan(length, level, bitsFor)
	if !ok {
		return 0, 0, false
	}
	span := high - low
	return int(addr.Nibble(int(low), int(span))), span, true
}

// bucketSize returns 1<<width, the slot count of the bucket array at
// (length, level), or 0 if that level doesn't exist (chain exhausted).
func bucketSize(length uint8, level int, bitsFor BitsForLevelFunc) int {
	low, high, ok := levelSpan(length, level, bitsFor)
	if !ok {
		return 0
	}
	return 1 << (high - low)
}
