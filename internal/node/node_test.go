package node

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPrefixAndLookupExact(t *testing.T) {
	n := New(4)
	span := BitSpan{Bits: 0b1010, Len: 4}

	assert.False(t, n.LookupExact(span))
	existed := n.SetPrefix(span)
	assert.False(t, existed)
	assert.True(t, n.LookupExact(span))

	existed = n.SetPrefix(span)
	assert.True(t, existed, "re-setting an occupied bit-span reports it already existed")
}

func TestLookupExactNeverMatchesDefaultRoute(t *testing.T) {
	n := New(4)
	assert.False(t, n.LookupExact(BitSpan{Len: 0}))
}

func TestLookupLongestWalksUpFromQuery(t *testing.T) {
	n := New(4)
	n.SetPrefix(BitSpan{Bits: 0b10, Len: 2})

	match, ok := n.LookupLongest(BitSpan{Bits: 0b1011, Len: 4})
	require.True(t, ok)
	assert.Equal(t, BitSpan{Bits: 0b10, Len: 2}, match)

	_, ok = n.LookupLongest(BitSpan{Bits: 0b0111, Len: 4})
	assert.False(t, ok, "0111 does not share the 10 prefix")
}

func TestLookupLongestPrefersMoreSpecific(t *testing.T) {
	n := New(4)
	n.SetPrefix(BitSpan{Bits: 0b1, Len: 1})
	n.SetPrefix(BitSpan{Bits: 0b101, Len: 3})

	match, ok := n.LookupLongest(BitSpan{Bits: 0b1010, Len: 4})
	require.True(t, ok)
	assert.Equal(t, BitSpan{Bits: 0b101, Len: 3}, match)
}

func TestEnumerateLessSpecificsAscendingLength(t *testing.T) {
	n := New(4)
	n.SetPrefix(BitSpan{Bits: 0b1, Len: 1})
	n.SetPrefix(BitSpan{Bits: 0b101, Len: 3})
	n.SetPrefix(BitSpan{Bits: 0b1010, Len: 4}) // the query itself, still "on path"

	hits := n.EnumerateLessSpecifics(BitSpan{Bits: 0b1010, Len: 4})
	require.Len(t, hits, 3)
	assert.Equal(t, uint8(1), hits[0].Len)
	assert.Equal(t, uint8(3), hits[1].Len)
	assert.Equal(t, uint8(4), hits[2].Len)
}

func TestEnumerateMoreSpecifics(t *testing.T) {
	n := New(5)
	n.SetPrefix(BitSpan{Bits: 0b100, Len: 3})  // inside span 0b10,len2
	n.SetPrefix(BitSpan{Bits: 0b101, Len: 3})  // inside span 0b10,len2
	n.SetPrefix(BitSpan{Bits: 0b011, Len: 3})  // outside span 0b10,len2

	hits := n.EnumerateMoreSpecifics(BitSpan{Bits: 0b10, Len: 2})
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, uint8(3), h.Len)
		assert.True(t, h.Bits == 0b100 || h.Bits == 0b101)
	}
}

func TestSetChildAndHasChild(t *testing.T) {
	n := New(4)
	assert.False(t, n.HasChild(5))
	existed := n.SetChild(5)
	assert.False(t, existed)
	assert.True(t, n.HasChild(5))
	assert.True(t, n.SetChild(5))
}

func TestChildNibblesUnderSpan(t *testing.T) {
	n := New(4)
	n.SetChild(0b1000)
	n.SetChild(0b1001)
	n.SetChild(0b0100)

	nibbles := n.ChildNibbles(BitSpan{Bits: 0b10, Len: 2})
	assert.ElementsMatch(t, []uint8{0b1000, 0b1001}, nibbles)
}

func TestIsEmpty(t *testing.T) {
	n := New(4)
	assert.True(t, n.IsEmpty())
	n.SetChild(1)
	assert.False(t, n.IsEmpty())
}

func TestAllPrefixSpansMatchesOccupancy(t *testing.T) {
	n := New(4)
	want := []BitSpan{{Bits: 0, Len: 1}, {Bits: 0b10, Len: 2}, {Bits: 0b1001, Len: 4}}
	for _, s := range want {
		n.SetPrefix(s)
	}
	got := n.AllPrefixSpans()
	assert.ElementsMatch(t, want, got)
}

func TestSetPrefixConcurrentCallersConverge(t *testing.T) {
	n := New(5)
	span := BitSpan{Bits: 0b11010, Len: 5}

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.SetPrefix(span)
		}()
	}
	wg.Wait()

	assert.True(t, n.LookupExact(span))
}
