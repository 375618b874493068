// Package rib implements a concurrent longest-prefix-match index for IP
// routing information: a multiway tree-bitmap trie backed by a
// chained-hash prefix table, updated lock-free via epoch-pinned reads
// and a read-copy-update merge discipline on metadata.
package rib

import (
	"fmt"
	"net/netip"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/rotonda-go/rib/internal/af"
	"github.com/rotonda-go/rib/internal/epoch"
	"github.com/rotonda-go/rib/internal/hotcache"
	"github.com/rotonda-go/rib/internal/node"
	"github.com/rotonda-go/rib/internal/query"
	"github.com/rotonda-go/rib/internal/store"
	"github.com/rotonda-go/rib/internal/stride"
)

// MatchType mirrors query.MatchType at the public surface so callers
// never import an internal package to build MatchOptions.
type MatchType = query.MatchType

const (
	MatchExact   = query.MatchExact
	MatchLongest = query.MatchLongest
	MatchEmpty   = query.MatchEmpty
)

// MatchOptions controls a Match call (spec.md §4.5).
type MatchOptions = query.MatchOptions

// Hit pairs a stored prefix with its metadata.
type Hit[M any] = query.Hit[M]

// QueryResult is the outcome of a Match call.
type QueryResult[M any] = query.Result[M]

// Table is a concurrent LPM index over one address family, holding
// metadata of type M.
type Table[M any] struct {
	family   af.Family
	layout   stride.Layout
	nodes    *store.NodeStore
	prefixes *store.PrefixStore[M]
	engine   *query.Engine[M]
	reg      *epoch.Registry
	merger   Merger[M]
	cache    *hotcache.Cache[M]
	stats    *stats
	logger   *zap.Logger
}

// New creates a Table for the given address family, reconciling
// concurrent updates to the same prefix via merger.
func New[M any](family Family, merger Merger[M], opts ...Option[M]) (*Table[M], error) {
	cfg := config[M]{
		layout: stride.Default(family),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.layout.Validate(family.Width()); err != nil {
		return nil, fmt.Errorf("rib: %w", err)
	}

	reg := epoch.NewRegistry()
	t := &Table[M]{
		family:   family,
		layout:   cfg.layout,
		nodes:    store.NewNodeStore(family, cfg.layout, cfg.bitsForLevel, cfg.logger),
		prefixes: store.NewPrefixStore[M](family.Width(), cfg.bitsForLevel, reg, cfg.logger),
		reg:      reg,
		merger:   merger,
		stats:    newStats(family.Width(), family.String()),
		logger:   cfg.logger,
	}
	t.engine = query.New[M](family, cfg.layout, t.nodes, t.prefixes)

	if cfg.hotCacheSize > 0 {
		cache, err := hotcache.New[M](cfg.hotCacheSize)
		if err != nil {
			return nil, fmt.Errorf("rib: hot cache: %w", err)
		}
		t.cache = cache
	}

	// Seed the root node so the first query never races a lazily
	// created root with an empty trie (mirrors
	// CustomAllocStorage::init's eager root-node store in
	// custom_alloc.rs).
	if _, err := t.nodes.GetOrCreate(af.NewNodeID(family, af.Bits128{}, 0, cfg.layout[0])); err != nil {
		return nil, fmt.Errorf("rib: seeding root node: %w", err)
	}
	t.stats.recordNode(0)

	return t, nil
}

func (t *Table[M]) checkFamily(p netip.Prefix) (af.PrefixID, error) {
	id := af.FromNetipPrefix(p)
	if id.Family != t.family {
		return af.PrefixID{}, ErrUnsupportedFamily
	}
	return id, nil
}

// Insert upserts (prefix, meta): a brand-new prefix is stored as-is; an
// existing one is reconciled through the Table's Merger. Trie nodes
// along the prefix's path are created as needed so the tree-bitmap
// traversal can find it (spec.md's documented insert data flow).
func (t *Table[M]) Insert(p netip.Prefix, meta M) error {
	id, err := t.checkFamily(p)
	if err != nil {
		return err
	}

	guard := t.reg.Pin()
	defer guard.Unpin()

	if id.Len > 0 {
		if err := t.touchPath(id); err != nil {
			return err
		}
	}

	for {
		err := t.prefixes.Upsert(id, meta, t.merger)
		if err == nil {
			t.stats.recordPrefix(id.Len, true)
			if t.cache != nil {
				t.cache.Invalidate()
			}
			return nil
		}
		if err == store.ErrPrefixAlreadyExists {
			// Another writer won the null-head CAS; re-enter the
			// upsert loop per spec.md §7's propagation policy -- it
			// will now observe an occupied head and merge instead.
			continue
		}
		return err
	}
}

// touchPath ensures every trie node on the path to id exists and has
// its bit-span published, per spec.md's "trie nodes along the path are
// created/updated to reflect occupancy" data flow.
func (t *Table[M]) touchPath(id af.PrefixID) error {
	var subLen uint8
	for {
		strideWidth, _, ok := t.layout.StrideForNodeLen(subLen)
		if !ok {
			return ErrNodeNotFound
		}
		nodeID := af.NewNodeID(t.family, id.Addr.Clean(int(subLen)), subLen, strideWidth)
		n, err := t.nodes.GetOrCreate(nodeID)
		if err != nil {
			return err
		}

		remaining := id.Len - subLen
		if remaining <= strideWidth {
			span := node.BitSpan{Bits: id.Addr.Nibble(int(subLen), int(remaining)), Len: remaining}
			n.SetPrefix(span)
			return nil
		}

		nibble := uint8(id.Addr.Nibble(int(subLen), int(strideWidth)))
		if !n.SetChild(nibble) {
			t.stats.recordNode(subLen + strideWidth)
		}
		subLen += strideWidth
	}
}

// Match answers an exact/longest/empty-allowed query.
func (t *Table[M]) Match(p netip.Prefix, opts MatchOptions) (QueryResult[M], error) {
	id, err := t.checkFamily(p)
	if err != nil {
		return QueryResult[M]{}, err
	}

	if t.cache != nil && opts.Type == MatchLongest && !opts.IncludeLessSpecifics && !opts.IncludeMoreSpecifics {
		if entry, ok := t.cache.Get(id); ok {
			kind := MatchLongest
			if !entry.Found {
				kind = MatchEmpty
			}
			return QueryResult[M]{Kind: kind, Matched: entry.Matched, Meta: entry.Meta, Found: entry.Found}, nil
		}
	}

	guard := t.reg.Pin()
	defer guard.Unpin()

	res := t.engine.Match(id, opts)

	if t.cache != nil && opts.Type == MatchLongest && !opts.IncludeLessSpecifics && !opts.IncludeMoreSpecifics {
		t.cache.Put(id, hotcache.Entry[M]{Matched: res.Matched, Meta: res.Meta, Found: res.Found})
	}
	return res, nil
}

// MoreSpecificsFrom returns every stored prefix strictly more specific
// than p.
func (t *Table[M]) MoreSpecificsFrom(p netip.Prefix) ([]Hit[M], error) {
	id, err := t.checkFamily(p)
	if err != nil {
		return nil, err
	}
	guard := t.reg.Pin()
	defer guard.Unpin()
	return t.engine.MoreSpecificsFrom(id), nil
}

// LessSpecificsFrom returns every stored prefix that strictly covers p,
// ordered most-general-first.
func (t *Table[M]) LessSpecificsFrom(p netip.Prefix) ([]Hit[M], error) {
	id, err := t.checkFamily(p)
	if err != nil {
		return nil, err
	}
	guard := t.reg.Pin()
	defer guard.Unpin()
	return t.engine.LessSpecificsFrom(id), nil
}

// StatsPerLevel returns per-length node and prefix counts (spec.md §6).
func (t *Table[M]) StatsPerLevel() []LevelStats {
	return t.stats.PerLevel()
}

// Collector exposes per-table statistics as a prometheus.Collector for
// registration with a caller-owned registry.
func (t *Table[M]) Collector() prometheus.Collector {
	return t.stats
}
