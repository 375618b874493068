package af

import (
	"fmt"
	"net/netip"
)

// Family identifies an address family and its bit width.
type Family uint8

const (
	IPv4 Family = 4
	IPv6 Family = 6
)

// Width returns W, the address width in bits for the family.
func (f Family) Width() int {
	if f == IPv4 {
		return 32
	}
	return 128
}

func (f Family) String() string {
	if f == IPv4 {
		return "IPv4"
	}
	return "IPv6"
}

// FamilyOf returns the Family of a netip.Addr.
func FamilyOf(a netip.Addr) Family {
	if a.Is4() || a.Is4In6() {
		return IPv4
	}
	return IPv6
}

// FromAddr converts a netip.Addr into its left-justified Bits128 form.
func FromAddr(a netip.Addr) Bits128 {
	if a.Is4() || a.Is4In6() {
		a4 := a.As4()
		v := uint32(a4[0])<<24 | uint32(a4[1])<<16 | uint32(a4[2])<<8 | uint32(a4[3])
		return FromIPv4(v)
	}
	b := a.As16()
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(b[i])
	}
	for i := 8; i < 16; i++ {
		lo = lo<<8 | uint64(b[i])
	}
	return FromIPv6(hi, lo)
}

// ToAddr renders a Bits128 back into a netip.Addr for the given family.
func ToAddr(f Family, b Bits128) netip.Addr {
	if f == IPv4 {
		v := uint32(b.Hi >> 32)
		return netip.AddrFrom4([4]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
	}
	var out [16]byte
	for i := 0; i < 8; i++ {
		out[i] = byte(b.Hi >> (56 - 8*i))
	}
	for i := 0; i < 8; i++ {
		out[8+i] = byte(b.Lo >> (56 - 8*i))
	}
	return netip.AddrFrom16(out)
}

// PrefixID is the semantic (addr, len) identity of a stored or queried
// prefix. The invariant addr.Clean(len) == addr must hold for any PrefixID
// constructed via NewPrefixID.
type PrefixID struct {
	Addr   Bits128
	Len    uint8
	Family Family
}

// NewPrefixID builds a PrefixID, cleaning addr to len bits.
func NewPrefixID(f Family, addr Bits128, length uint8) PrefixID {
	return PrefixID{Addr: addr.Clean(int(length)), Len: length, Family: f}
}

// FromNetipPrefix converts a netip.Prefix to a PrefixID.
func FromNetipPrefix(p netip.Prefix) PrefixID {
	f := FamilyOf(p.Addr())
	return NewPrefixID(f, FromAddr(p.Addr()), uint8(p.Bits()))
}

// ToNetipPrefix renders a PrefixID back to a netip.Prefix.
func (p PrefixID) ToNetipPrefix() netip.Prefix {
	return netip.PrefixFrom(ToAddr(p.Family, p.Addr), int(p.Len))
}

func (p PrefixID) String() string {
	return p.ToNetipPrefix().String()
}

// Equal reports whether p and o name the same prefix.
func (p PrefixID) Equal(o PrefixID) bool {
	return p.Family == o.Family && p.Len == o.Len && p.Addr.Equal(o.Addr)
}

// IsStrictPrefixOf reports whether p is a strict (shorter, covering)
// prefix of other: p.Len < other.Len and other falls within p's range.
func (p PrefixID) IsStrictPrefixOf(other PrefixID) bool {
	if p.Family != other.Family || p.Len >= other.Len {
		return false
	}
	return other.Addr.Clean(int(p.Len)).Equal(p.Addr)
}

// NodeID is the identity of a trie node: a cleaned address prefix of
// SubLen bits plus the stride width consumed to reach it.
type NodeID struct {
	Addr   Bits128
	SubLen uint8
	Stride uint8
	Family Family
}

// NewNodeID builds a NodeID, cleaning addr to subLen bits.
func NewNodeID(f Family, addr Bits128, subLen, stride uint8) NodeID {
	return NodeID{Addr: addr.Clean(int(subLen)), SubLen: subLen, Stride: stride, Family: f}
}

func (n NodeID) String() string {
	return fmt.Sprintf("%s/%d(stride=%d)", ToAddr(n.Family, n.Addr), n.SubLen, n.Stride)
}

// Equal reports whether n and o name the same node.
func (n NodeID) Equal(o NodeID) bool {
	return n.Family == o.Family && n.SubLen == o.SubLen && n.Addr.Equal(o.Addr)
}
