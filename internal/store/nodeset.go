package store

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rotonda-go/rib/internal/af"
	"github.com/rotonda-go/rib/internal/node"
	"github.com/rotonda-go/rib/internal/stride"
)

// nodeSlot is one occupied or empty entry in a NodeSet. Once a slot is
// published (the id/node fields set via the slot's first successful
// CAS), those fields never change; only next, and the node's own
// internal bitmaps, mutate afterward.
type nodeSlot struct {
	id   af.NodeID
	node *node.TrieNode
	next atomic.Pointer[NodeSet]
}

// NodeSet is one length-and-level bucket array of node slots, per
// spec.md §4.3. Collisions chain into a lazily allocated next-level
// NodeSet hanging off the colliding slot.
type NodeSet struct {
	slots []atomic.Pointer[nodeSlot]
}

func newNodeSet(size int) *NodeSet {
	return &NodeSet{slots: make([]atomic.Pointer[nodeSlot], size)}
}

// NodeStore is the chained-hash node store (C5): one root NodeSet per
// node sub-prefix length, grown into deeper per-level NodeSets on
// collision. Grounded on
// original_source/src/local_array/store/custom_alloc.rs's
// CustomAllocStorage node-side methods (store_node,
// retrieve_node_with_guard), generalized from the Rust per-stride-width
// monomorphized buckets down to one NodeID-keyed store.
type NodeStore struct {
	family  af.Family
	layout  stride.Layout
	bitsFor BitsForLevelFunc
	roots   []atomic.Pointer[NodeSet] // indexed by node sub-prefix length L
	log     *zap.Logger
}

// NewNodeStore allocates a node store for the given family and stride
// layout. Root buckets are created lazily on first touch of each length
// to avoid allocating W+1 arrays up front for layouts with many strides.
// A nil logger defaults to zap.NewNop(), the same fallback Table.New
// uses for its own logger.
func NewNodeStore(f af.Family, layout stride.Layout, bitsFor BitsForLevelFunc, logger *zap.Logger) *NodeStore {
	if bitsFor == nil {
		bitsFor = DefaultBitsForLevel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	width := f.Width()
	return &NodeStore{
		family:  f,
		layout:  layout,
		bitsFor: bitsFor,
		roots:   make([]atomic.Pointer[NodeSet], width+1),
		log:     logger,
	}
}

func (s *NodeStore) rootFor(length uint8) *NodeSet {
	if existing := s.roots[length].Load(); existing != nil {
		return existing
	}
	size := bucketSize(length, 0, s.bitsFor)
	if size == 0 {
		size = 1
	}
	fresh := newNodeSet(size)
	// Lost races here just discard the loser's allocation; both
	// observers end up pointing at whichever NodeSet won, which is safe
	// because no slot has been published into either yet.
	if s.roots[length].CompareAndSwap(nil, fresh) {
		return fresh
	}
	return s.roots[length].Load()
}

// strideWidthFor returns the stride width a node at the given
// sub-prefix length uses for its own bit-arrays (the stride it consumes
// going deeper, per stride.Layout.StrideForNodeLen).
func (s *NodeStore) strideWidthFor(length uint8) uint8 {
	if width, _, ok := s.layout.StrideForNodeLen(length); ok {
		return width
	}
	// length is the full address width: no node is ever created this
	// deep (nothing descends further), but callers computing a stride
	// for bitmap sizing at this depth get the last configured width.
	return s.layout[len(s.layout)-1]
}

// GetOrCreate returns the node for id, creating and publishing an empty
// one if none exists yet. Insertion never overwrites an existing node;
// a racing creator's node is discarded once the real owner is observed,
// per spec.md §4.3 step 3.
func (s *NodeStore) GetOrCreate(id af.NodeID) (*node.TrieNode, error) {
	set := s.rootFor(id.SubLen)
	level := 0
	b := backoff{}

	for {
		if level >= maxChainDepth {
			s.log.Warn("node creation exhausted max chain depth",
				zap.Uint8("length", id.SubLen), zap.Int("maxChainDepth", maxChainDepth))
			return nil, ErrNodeCreationMaxRetry
		}
		idx, _, ok := hashIndex(id.Addr, id.SubLen, level, s.bitsFor)
		if !ok {
			return nil, ErrNodeCreationMaxRetry
		}

		slotPtr := &set.slots[idx]
		cur := slotPtr.Load()
		if cur == nil {
			candidate := &nodeSlot{id: id, node: node.New(s.strideWidthFor(id.SubLen))}
			if slotPtr.CompareAndSwap(nil, candidate) {
				return candidate.node, nil
			}
			s.log.Debug("node slot CAS contention, retrying",
				zap.Uint8("length", id.SubLen), zap.Int("level", level))
			b.spin()
			continue
		}
		if cur.id.Equal(id) {
			return cur.node, nil
		}

		next := cur.next.Load()
		if next == nil {
			width := bucketSize(id.SubLen, level+1, s.bitsFor)
			if width == 0 {
				return nil, ErrNodeCreationMaxRetry
			}
			fresh := newNodeSet(width)
			if cur.next.CompareAndSwap(nil, fresh) {
				next = fresh
			} else {
				next = cur.next.Load()
			}
		}
		set = next
		level++
	}
}

// Lookup returns the node for id if it already exists, without creating
// one. Used by the read path, which must never publish a node as a side
// effect of a miss.
func (s *NodeStore) Lookup(id af.NodeID) (*node.TrieNode, bool) {
	set := s.roots[id.SubLen].Load()
	if set == nil {
		return nil, false
	}
	level := 0
	for level < maxChainDepth {
		idx, _, ok := hashIndex(id.Addr, id.SubLen, level, s.bitsFor)
		if !ok {
			return nil, false
		}
		cur := set.slots[idx].Load()
		if cur == nil {
			return nil, false
		}
		if cur.id.Equal(id) {
			return cur.node, true
		}
		next := cur.next.Load()
		if next == nil {
			return nil, false
		}
		set = next
		level++
	}
	return nil, false
}
