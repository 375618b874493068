package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotonda-go/rib/internal/af"
	"github.com/rotonda-go/rib/internal/epoch"
	"github.com/rotonda-go/rib/internal/node"
	"github.com/rotonda-go/rib/internal/store"
	"github.com/rotonda-go/rib/internal/stride"
)

type lastWriteWinsMerger struct{}

func (lastWriteWinsMerger) Merge(existing, incoming int) int { return incoming }

func newTestEngine(t *testing.T) (*Engine[int], *store.NodeStore, *store.PrefixStore[int]) {
	t.Helper()
	layout := stride.DefaultIPv4
	nodes := store.NewNodeStore(af.IPv4, layout, nil, nil)
	prefixes := store.NewPrefixStore[int](32, nil, epoch.NewRegistry(), nil)

	// Seed the root node the way Table.New does.
	_, err := nodes.GetOrCreate(af.NewNodeID(af.IPv4, af.Bits128{}, 0, layout[0]))
	require.NoError(t, err)

	return New[int](af.IPv4, layout, nodes, prefixes), nodes, prefixes
}

// insertRoute mimics Table.Insert's node-touching plus prefix-store
// upsert, without importing the root package (would be a cycle).
func insertRoute(t *testing.T, nodes *store.NodeStore, prefixes *store.PrefixStore[int], layout stride.Layout, p af.PrefixID, meta int) {
	t.Helper()
	if p.Len > 0 {
		var subLen uint8
		for {
			strideWidth, _, ok := layout.StrideForNodeLen(subLen)
			require.True(t, ok)
			nodeID := af.NewNodeID(af.IPv4, p.Addr.Clean(int(subLen)), subLen, strideWidth)
			n, err := nodes.GetOrCreate(nodeID)
			require.NoError(t, err)

			remaining := p.Len - subLen
			if remaining <= strideWidth {
				n.SetPrefix(node.BitSpan{Bits: p.Addr.Nibble(int(subLen), int(remaining)), Len: remaining})
				break
			}
			nibble := uint8(p.Addr.Nibble(int(subLen), int(strideWidth)))
			n.SetChild(nibble)
			subLen += strideWidth
		}
	}
	require.NoError(t, prefixes.Upsert(p, meta, lastWriteWinsMerger{}))
}

func pfx(addr uint32, length uint8) af.PrefixID {
	return af.NewPrefixID(af.IPv4, af.FromIPv4(addr), length)
}

func TestMatchExactHit(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)

	res := e.Match(pfx(0x0A000000, 8), MatchOptions{Type: MatchExact})
	require.True(t, res.Found)
	assert.Equal(t, 1, res.Meta)
}

func TestMatchExactMiss(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)

	res := e.Match(pfx(0x0A000000, 16), MatchOptions{Type: MatchExact})
	assert.False(t, res.Found)
}

func TestMatchLongestPrefersMoreSpecific(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A010000, 16), 2)

	res := e.Match(pfx(0x0A010203, 32), MatchOptions{Type: MatchLongest})
	require.True(t, res.Found)
	assert.Equal(t, 2, res.Meta)
	assert.EqualValues(t, 16, res.Matched.Len)
}

func TestMatchLongestFallsBackToLessSpecific(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)

	res := e.Match(pfx(0x0A020304, 32), MatchOptions{Type: MatchLongest})
	require.True(t, res.Found)
	assert.Equal(t, 1, res.Meta)
	assert.EqualValues(t, 8, res.Matched.Len)
}

func TestMatchLongestNoMatchIsEmpty(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0B000000, 8), 1)

	res := e.Match(pfx(0x0A000000, 32), MatchOptions{Type: MatchLongest})
	assert.False(t, res.Found)
	assert.Equal(t, MatchEmpty, res.Kind)
}

func TestMatchLongestFallsBackToDefaultRoute(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0, 0), 0)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)

	res := e.Match(pfx(0x0B000000, 32), MatchOptions{Type: MatchLongest})
	require.True(t, res.Found, "a stored default route must be the last-resort match")
	assert.Equal(t, 0, res.Meta)
	assert.EqualValues(t, 0, res.Matched.Len)
}

func TestMatchLongestPrefersTrieMatchOverDefaultRoute(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0, 0), 0)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)

	res := e.Match(pfx(0x0A010203, 32), MatchOptions{Type: MatchLongest})
	require.True(t, res.Found)
	assert.Equal(t, 1, res.Meta, "a more specific stored route must win over the default route")
	assert.EqualValues(t, 8, res.Matched.Len)
}

func TestMatchLongestNoDefaultRouteStillEmpty(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0B000000, 8), 1)

	res := e.Match(pfx(0x0A000000, 32), MatchOptions{Type: MatchLongest})
	assert.False(t, res.Found, "no default route stored, so a miss must stay a miss")
	assert.Equal(t, MatchEmpty, res.Kind)
}

func TestMatchLongestIncludesLessSpecificsAscending(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A010000, 16), 2)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A010200, 24), 3)

	res := e.Match(pfx(0x0A010203, 32), MatchOptions{Type: MatchLongest, IncludeLessSpecifics: true})
	require.True(t, res.Found)
	assert.Equal(t, 3, res.Meta)
	require.Len(t, res.LessSpecifics, 2)
	assert.EqualValues(t, 8, res.LessSpecifics[0].Prefix.Len)
	assert.EqualValues(t, 16, res.LessSpecifics[1].Prefix.Len)
}

func TestMoreSpecificsFrom(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A010000, 16), 2)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0B000000, 8), 3)

	hits := e.MoreSpecificsFrom(pfx(0x0A000000, 8))
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Meta)
}

func TestLessSpecificsFrom(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A010000, 16), 2)

	hits := e.LessSpecificsFrom(pfx(0x0A010203, 32))
	require.Len(t, hits, 2)
	assert.EqualValues(t, 8, hits[0].Prefix.Len)
	assert.EqualValues(t, 16, hits[1].Prefix.Len)
}

func TestExactMatchCanIncludeMoreSpecifics(t *testing.T) {
	e, nodes, prefixes := newTestEngine(t)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A000000, 8), 1)
	insertRoute(t, nodes, prefixes, stride.DefaultIPv4, pfx(0x0A010000, 16), 2)

	res := e.Match(pfx(0x0A000000, 8), MatchOptions{Type: MatchExact, IncludeMoreSpecifics: true})
	require.True(t, res.Found)
	require.Len(t, res.MoreSpecifics, 1)
	assert.Equal(t, 2, res.MoreSpecifics[0].Meta)
}
