// Package hotcache provides an optional read-through LRU in front of a
// longest-match query engine, keyed by the queried prefix. Real FIBs
// front a trie with a small forwarding cache for exactly this reason;
// this supplements the specification's core (which is silent on
// caching) the way a production router would.
package hotcache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/rotonda-go/rib/internal/af"
)

// Entry is a cached query outcome.
type Entry[M any] struct {
	Matched af.PrefixID
	Meta    M
	Found   bool
}

// Cache is a fixed-capacity LRU of longest-match query results. It never
// caches more-/less-specifics results, since those invalidate far more
// readily than a single longest-match hit.
type Cache[M any] struct {
	inner *lru.Cache[af.PrefixID, Entry[M]]
}

// New creates a cache holding at most size entries. size must be > 0.
func New[M any](size int) (*Cache[M], error) {
	inner, err := lru.New[af.PrefixID, Entry[M]](size)
	if err != nil {
		return nil, err
	}
	return &Cache[M]{inner: inner}, nil
}

// Get returns the cached entry for query, if present.
func (c *Cache[M]) Get(query af.PrefixID) (Entry[M], bool) {
	return c.inner.Get(query)
}

// Put records the outcome of a query.
func (c *Cache[M]) Put(query af.PrefixID, entry Entry[M]) {
	c.inner.Add(query, entry)
}

// Invalidate drops every cached entry. Called after any Insert, since an
// insert can change the longest match for previously cached queries that
// fell through to a shorter prefix.
func (c *Cache[M]) Invalidate() {
	c.inner.Purge()
}

// Len reports the number of entries currently cached.
func (c *Cache[M]) Len() int {
	return c.inner.Len()
}
