// Package stride defines the per-address-family sequence of stride widths
// that partitions a trie into levels, per the specification's Stride
// Layout data model (spec.md §3, component C4).
package stride

import (
	"fmt"

	"github.com/rotonda-go/rib/internal/af"
)

// Layout is an ordered, non-empty sequence of stride widths, each in
// {3,4,5}, summing to the address family's bit width.
type Layout []uint8

// DefaultIPv4 is eight 4-bit strides (nibble-at-a-time), the conventional
// multibit-trie layout for a 32-bit address.
var DefaultIPv4 = Layout{4, 4, 4, 4, 4, 4, 4, 4}

// DefaultIPv6 is thirty-two 4-bit strides for a 128-bit address.
var DefaultIPv6 = func() Layout {
	l := make(Layout, 32)
	for i := range l {
		l[i] = 4
	}
	return l
}()

// Default returns the default layout for a family.
func Default(f af.Family) Layout {
	if f == af.IPv4 {
		return DefaultIPv4
	}
	return DefaultIPv6
}

// Validate checks that every stride is in {3,4,5} and that the strides sum
// exactly to width.
func (l Layout) Validate(width int) error {
	if len(l) == 0 {
		return fmt.Errorf("stride: empty layout")
	}
	sum := 0
	for i, s := range l {
		if s < 3 || s > 5 {
			return fmt.Errorf("stride: layout[%d]=%d out of range {3,4,5}", i, s)
		}
		sum += int(s)
	}
	if sum != width {
		return fmt.Errorf("stride: layout sums to %d bits, want %d", sum, width)
	}
	return nil
}

// StrideEnds returns, for each index i, the cumulative bit position at the
// end of strides[0..=i] -- i.e. the node sub-prefix length after
// descending through that many trie levels.
func (l Layout) StrideEnds() []uint8 {
	ends := make([]uint8, len(l))
	var acc uint8
	for i, s := range l {
		acc += s
		ends[i] = acc
	}
	return ends
}

// StrideForNodeLen returns the stride width of the trie level whose node
// sub-prefix-length is subLen, i.e. the stride a node at that depth
// consumes going deeper. subLen must be 0 (the root, which yields the
// first stride) or one of the cumulative StrideEnds values other than
// the last; any other value reports ok == false.
func (l Layout) StrideForNodeLen(subLen uint8) (stride uint8, levelIndex int, ok bool) {
	var acc uint8
	for i, s := range l {
		if acc == subLen {
			return s, i, true
		}
		acc += s
	}
	return 0, 0, false
}
