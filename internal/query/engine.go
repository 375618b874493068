// Package query implements the tree-traversal and store-driven lookups
// (specification component C8): exact and longest-prefix match, and
// more-/less-specifics enumeration, over the node store and prefix
// store in package store. Grounded on
// original_source/src/local_array/query.rs's match_prefix_by_tree_traversal
// and more_specifics_from/less_specifics_from.
package query

import (
	"sort"

	"github.com/rotonda-go/rib/internal/af"
	"github.com/rotonda-go/rib/internal/node"
	"github.com/rotonda-go/rib/internal/store"
	"github.com/rotonda-go/rib/internal/stride"
)

// MatchType selects the kind of lookup Match performs.
type MatchType int

const (
	MatchExact MatchType = iota
	MatchLongest
	MatchEmpty
)

// MatchOptions controls a Match call, per spec.md §4.5.
type MatchOptions struct {
	Type                 MatchType
	IncludeLessSpecifics bool
	IncludeMoreSpecifics bool
}

// Hit pairs a stored prefix with its metadata, used in enumeration
// results where the caller needs both.
type Hit[M any] struct {
	Prefix af.PrefixID
	Meta   M
}

// Result is the outcome of a Match call.
type Result[M any] struct {
	Kind           MatchType
	Matched        af.PrefixID
	Meta           M
	Found          bool
	LessSpecifics  []Hit[M]
	MoreSpecifics  []Hit[M]
}

// Engine answers queries against a node store and prefix store sharing
// one address family and stride layout.
type Engine[M any] struct {
	family   af.Family
	layout   stride.Layout
	ends     []uint8
	nodes    *store.NodeStore
	prefixes *store.PrefixStore[M]
}

// New creates a query engine over the given stores.
func New[M any](f af.Family, layout stride.Layout, nodes *store.NodeStore, prefixes *store.PrefixStore[M]) *Engine[M] {
	return &Engine[M]{family: f, layout: layout, ends: layout.StrideEnds(), nodes: nodes, prefixes: prefixes}
}

// Match performs an exact, longest, or empty-allowed match for query
// according to opts.
func (e *Engine[M]) Match(query af.PrefixID, opts MatchOptions) Result[M] {
	if opts.Type == MatchExact {
		meta, ok := e.prefixes.Retrieve(query)
		res := Result[M]{Kind: MatchExact, Matched: query, Meta: meta, Found: ok}
		if opts.IncludeLessSpecifics {
			res.LessSpecifics = e.lessSpecificsHits(query)
		}
		if ok && opts.IncludeMoreSpecifics {
			res.MoreSpecifics = e.moreSpecificsHits(query)
		}
		return res
	}

	matched, found, lessIDs := e.walkTrie(query, opts.IncludeLessSpecifics)

	res := Result[M]{Kind: MatchLongest, Found: found}
	if found {
		res.Matched = matched
		if meta, ok := e.prefixes.Retrieve(matched); ok {
			res.Meta = meta
		} else {
			res.Found = false
		}
	}
	if !res.Found {
		// The trie walk can never find the default route: length 0 has
		// no bit position in any node's bitmap (spec.md §9), so /0 only
		// ever lives in the prefix store. Fall back to it before giving
		// up, the same way a real FIB treats a default route as the
		// last-resort match.
		if meta, ok := e.prefixes.Retrieve(af.NewPrefixID(e.family, af.Bits128{}, 0)); ok {
			res.Matched = af.NewPrefixID(e.family, af.Bits128{}, 0)
			res.Meta = meta
			res.Found = true
		}
	}
	if opts.IncludeLessSpecifics {
		res.LessSpecifics = e.hitsFromIDs(lessIDs)
	}
	if opts.IncludeMoreSpecifics {
		base := query
		if res.Found {
			base = res.Matched
		}
		res.MoreSpecifics = e.moreSpecificsHits(base)
	}
	if !res.Found {
		res.Kind = MatchEmpty
	}
	return res
}

// walkTrie performs the tree-bitmap traversal of spec.md §4.5 step 1-6,
// returning the deepest (longest) matching stored prefix reachable by
// descending the trie toward query, plus every less-specific bit-span
// crossed along the way if collectLess is set.
func (e *Engine[M]) walkTrie(query af.PrefixID, collectLess bool) (matched af.PrefixID, found bool, less []af.PrefixID) {
	nodeID := af.NewNodeID(e.family, af.Bits128{}, 0, e.layout[0])
	cur, ok := e.nodes.Lookup(nodeID)
	if !ok {
		return af.PrefixID{}, false, nil
	}

	var subLen uint8
	for i, s := range e.layout {
		strideEnd := e.ends[i]
		lastStride := query.Len < strideEnd
		nibbleLen := s
		if lastStride {
			if strideEnd-query.Len >= s {
				break
			}
			nibbleLen = s - (strideEnd - query.Len)
		}
		if nibbleLen == 0 {
			break
		}
		nibbleVal := query.Addr.Nibble(int(subLen), int(nibbleLen))

		for l := int(nibbleLen); l >= 1; l-- {
			span := node.BitSpan{Bits: nibbleVal >> uint(int(nibbleLen)-l), Len: uint8(l)}
			if cur.LookupExact(span) {
				candidate := af.NewPrefixID(e.family, query.Addr.Clean(int(subLen)+l), uint8(int(subLen)+l))
				if collectLess {
					less = append(less, candidate)
				}
				matched, found = candidate, true
			}
		}

		if lastStride {
			break
		}

		childNibble := uint8(nibbleVal)
		if !cur.HasChild(childNibble) {
			break
		}
		subLen = strideEnd
		childStride, _, ok := e.layout.StrideForNodeLen(subLen)
		if !ok {
			break
		}
		childID := af.NewNodeID(e.family, query.Addr.Clean(int(subLen)), subLen, childStride)
		childNode, ok := e.nodes.Lookup(childID)
		if !ok {
			break
		}
		cur = childNode
	}

	// Drop the final match itself: less must hold only prefixes strictly
	// less specific than matched, and the walk above visits each length
	// at most once so there is at most one entry to drop.
	if found {
		trimmed := less[:0]
		for _, id := range less {
			if id.Len != matched.Len {
				trimmed = append(trimmed, id)
			}
		}
		less = trimmed
	}

	// Ascending-length order per the documented open-question decision
	// (spec.md §9: "pick one (length-ascending) and document").
	sort.Slice(less, func(i, j int) bool { return less[i].Len < less[j].Len })
	return matched, found, less
}

// lessSpecificsHits implements the prefix-store-only algorithm of
// spec.md §4.4 (probing every shorter length directly), used both by
// LessSpecificsFrom and by an exact Match asked to include them.
func (e *Engine[M]) lessSpecificsHits(query af.PrefixID) []Hit[M] {
	var hits []Hit[M]
	for l := 0; l < int(query.Len); l++ {
		candidate := af.NewPrefixID(e.family, query.Addr.Clean(l), uint8(l))
		if meta, ok := e.prefixes.Retrieve(candidate); ok {
			hits = append(hits, Hit[M]{Prefix: candidate, Meta: meta})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Prefix.Len < hits[j].Prefix.Len })
	return hits
}

func (e *Engine[M]) hitsFromIDs(ids []af.PrefixID) []Hit[M] {
	hits := make([]Hit[M], 0, len(ids))
	for _, id := range ids {
		if meta, ok := e.prefixes.Retrieve(id); ok {
			hits = append(hits, Hit[M]{Prefix: id, Meta: meta})
		}
	}
	return hits
}

// moreSpecificsHits implements the store-driven algorithm of spec.md
// §4.4: for every length longer than query.Len, walk that length's
// bucket tree and keep entries whose top query.Len bits match. This is
// the "MAY prune via ptrbitarr" path taken without the optional
// trie-pruning optimization -- correctness does not depend on it, only
// the amount of work scanned, and this keeps the node store and prefix
// store each doing the one thing they're specialized for. Walking each
// length separately can never revisit the same PrefixID twice (distinct
// lengths are distinct identities), so no deduplication step is needed.
func (e *Engine[M]) moreSpecificsHits(query af.PrefixID) []Hit[M] {
	var hits []Hit[M]
	width := e.family.Width()
	for l := int(query.Len) + 1; l <= width; l++ {
		e.prefixes.Walk(uint8(l), func(id af.PrefixID, meta M) {
			if !query.IsStrictPrefixOf(id) {
				return
			}
			hits = append(hits, Hit[M]{Prefix: id, Meta: meta})
		})
	}
	return hits
}

// MoreSpecificsFrom returns every stored prefix strictly more specific
// than prefix.
func (e *Engine[M]) MoreSpecificsFrom(prefix af.PrefixID) []Hit[M] {
	return e.moreSpecificsHits(prefix)
}

// LessSpecificsFrom returns every stored prefix that strictly covers
// prefix, ordered most-general-first.
func (e *Engine[M]) LessSpecificsFrom(prefix af.PrefixID) []Hit[M] {
	return e.lessSpecificsHits(prefix)
}
