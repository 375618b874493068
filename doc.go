// Package rib is a concurrent longest-prefix-match index for IP routing
// information.
//
// A Table[M] stores prefixes of one address family (IPv4 or IPv6),
// each carrying caller-defined metadata M, in a multiway tree-bitmap
// trie (the Eatherton bit-span scheme) backed by chained-hash node and
// prefix stores. Reads never block: a query pins the current epoch,
// walks atomically-published pointers, and unpins on return. Writers
// never block readers: an Insert reconciles a conflicting write via
// the caller-supplied Merger and publishes the merged record with a
// single compare-and-swap, retrying only on contention.
//
//	t, err := rib.New[int](rib.IPv4, rib.MergerFunc[int](func(existing, incoming int) int { return incoming }))
//	if err != nil {
//		// handle
//	}
//	_ = t.Insert(netip.MustParsePrefix("10.0.0.0/8"), 42)
//	res, _ := t.Match(netip.MustParsePrefix("10.1.2.3/32"), rib.MatchOptions{Type: rib.MatchLongest})
//
// See SPEC_FULL.md for the full data model and operation semantics, and
// DESIGN.md for how each package is grounded in the reference corpus.
package rib
