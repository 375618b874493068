package node

import "fmt"

// BitSpan names a prefix shorter than (or equal to) a full stride nibble:
// a value of Len bits (1 <= Len <= stride width). It is the unit the
// tree-bitmap node's pfxbitarr is indexed by.
//
// Grounded on original_source/src/local_array/bit_span.rs's BitSpan type.
type BitSpan struct {
	Bits uint32
	Len  uint8
}

// Index returns the Eatherton bit-span index into pfxbitarr:
// (1 << len) - 2 + value, valid for 1 <= Len <= 5.
func (s BitSpan) Index() uint8 {
	return uint8((uint32(1)<<s.Len)-2) + uint8(s.Bits)
}

// parent returns the bit-span one level less specific (Len-1), i.e. the
// value with its least significant bit dropped.
func (s BitSpan) parent() BitSpan {
	return BitSpan{Bits: s.Bits >> 1, Len: s.Len - 1}
}

func (s BitSpan) String() string {
	return fmt.Sprintf("%0*b/%d", s.Len, s.Bits, s.Len)
}

// fromIndex reconstructs the BitSpan for a pfxbitarr index (inverse of
// Index), scanning length upward. Only used off the hot path (dumping).
func fromIndex(idx uint8) BitSpan {
	for length := uint8(1); length <= 5; length++ {
		base := uint8((uint32(1) << length) - 2)
		width := uint8(1) << length
		if idx >= base && idx < base+width {
			return BitSpan{Bits: uint32(idx - base), Len: length}
		}
	}
	panic("node: bit-span index out of range")
}
