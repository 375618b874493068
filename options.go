package rib

import (
	"go.uber.org/zap"

	"github.com/rotonda-go/rib/internal/store"
	"github.com/rotonda-go/rib/internal/stride"
)

// StrideLayout is the ordered sequence of per-level stride widths a
// Table descends by; see WithStrideLayout.
type StrideLayout = stride.Layout

// BitsForLevelFunc computes the cumulative hash key width consumed by
// levels [0,level] of a prefix length's hash chain; see
// WithBitsForLevelTable.
type BitsForLevelFunc = store.BitsForLevelFunc

// Option configures a Table at construction time, following the
// functional-options convention the teacher pack uses throughout
// (cobra/viper-style builders in pl1189-go-spacemesh, flag-style
// construction in gaissmai/bart's pool.go).
type Option[M any] func(*config[M])

type config[M any] struct {
	layout       stride.Layout
	bitsForLevel store.BitsForLevelFunc
	logger       *zap.Logger
	hotCacheSize int
}

// WithStrideLayout overrides the default stride widths for the table's
// address family. Each width must be in {3,4,5} and sum to the family's
// bit width (spec.md §6's "stride_layout" construction option).
func WithStrideLayout[M any](layout StrideLayout) Option[M] {
	return func(c *config[M]) { c.layout = layout }
}

// WithBitsForLevelTable overrides the default hash bucket-size table
// (spec.md §6's "bits_for_level_table" construction option).
func WithBitsForLevelTable[M any](fn BitsForLevelFunc) Option[M] {
	return func(c *config[M]) { c.bitsForLevel = fn }
}

// WithLogger attaches a zap logger; CAS contention retries in the node
// and prefix stores are logged at Debug, and a chain lookup that runs
// past the maximum chain depth is logged at Warn.
func WithLogger[M any](logger *zap.Logger) Option[M] {
	return func(c *config[M]) { c.logger = logger }
}

// WithHotCache enables a read-through LRU of size entries in front of
// longest match queries; exact matches and queries that include less- or
// more-specifics are not cached. Disabled (size 0) by default.
func WithHotCache[M any](size int) Option[M] {
	return func(c *config[M]) { c.hotCacheSize = size }
}
