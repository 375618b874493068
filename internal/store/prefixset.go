package store

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rotonda-go/rib/internal/af"
	"github.com/rotonda-go/rib/internal/epoch"
)

// Merger reconciles an existing metadata value with an incoming one on
// upsert. It must be safe to call more than once for the same pairing
// under CAS contention (spec.md §4.4: "merge may be invoked more than
// once per upsert"). This replaces the role gaissmai/bart's Cloner[V]
// plays for copy-on-write persistence with the merge-update contract
// this store actually needs.
type Merger[M any] interface {
	Merge(existing, incoming M) M
}

// record is one published (prefix, metadata) pairing -- the "head" a
// StoredPrefix's super_agg pointer targets.
type record[M any] struct {
	meta M
}

// prefixSlot is one occupied or empty entry in a PrefixSet.
type prefixSlot[M any] struct {
	id     af.PrefixID
	head   atomic.Pointer[record[M]]
	next   atomic.Pointer[PrefixSet[M]]
	serial atomic.Uint64
}

// PrefixSet is one length-and-level bucket array of prefix slots.
type PrefixSet[M any] struct {
	slots []atomic.Pointer[prefixSlot[M]]
}

func newPrefixSet[M any](size int) *PrefixSet[M] {
	return &PrefixSet[M]{slots: make([]atomic.Pointer[prefixSlot[M]], size)}
}

// PrefixStore is the chained-hash prefix table (C6): the critical
// section of the whole design. Grounded on
// original_source/src/local_array/store/custom_alloc.rs's upsert_prefix
// and non_recursive_retrieve_prefix_mut_with_guard.
type PrefixStore[M any] struct {
	bitsFor BitsForLevelFunc
	roots   []atomic.Pointer[PrefixSet[M]] // indexed by prefix length
	reg     *epoch.Registry
	log     *zap.Logger
}

// NewPrefixStore allocates a prefix store for address width width (32 or
// 128), sharing reg so deferred reclamation of superseded heads
// linearizes against the same epoch as node-store and query readers. A
// nil logger defaults to zap.NewNop().
func NewPrefixStore[M any](width int, bitsFor BitsForLevelFunc, reg *epoch.Registry, logger *zap.Logger) *PrefixStore[M] {
	if bitsFor == nil {
		bitsFor = DefaultBitsForLevel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PrefixStore[M]{
		bitsFor: bitsFor,
		roots:   make([]atomic.Pointer[PrefixSet[M]], width+1),
		reg:     reg,
		log:     logger,
	}
}

func (s *PrefixStore[M]) rootFor(length uint8) *PrefixSet[M] {
	if existing := s.roots[length].Load(); existing != nil {
		return existing
	}
	size := bucketSize(length, 0, s.bitsFor)
	if size == 0 {
		size = 1
	}
	fresh := newPrefixSet[M](size)
	if s.roots[length].CompareAndSwap(nil, fresh) {
		return fresh
	}
	return s.roots[length].Load()
}

// descend walks (or extends) the chain for id, returning the slot that
// either already holds id or is the first empty slot eligible to host
// it. Mirrors non_recursive_retrieve_prefix_mut_with_guard: a miss at
// the deepest populated level still returns a usable slot reference so
// the caller can CAS a new record into it.
func (s *PrefixStore[M]) descend(id af.PrefixID) (*prefixSlot[M], error) {
	set := s.rootFor(id.Len)
	level := 0
	b := backoff{}

	for {
		if level >= maxChainDepth {
			s.log.Warn("prefix slot creation exhausted max chain depth",
				zap.Uint8("length", id.Len), zap.Int("maxChainDepth", maxChainDepth))
			return nil, ErrNodeCreationMaxRetry
		}
		idx, _, ok := hashIndex(id.Addr, id.Len, level, s.bitsFor)
		if !ok {
			return nil, ErrNodeCreationMaxRetry
		}

		slotPtr := &set.slots[idx]
		cur := slotPtr.Load()
		if cur == nil {
			candidate := &prefixSlot[M]{id: id}
			if slotPtr.CompareAndSwap(nil, candidate) {
				return candidate, nil
			}
			s.log.Debug("prefix slot CAS contention, retrying",
				zap.Uint8("length", id.Len), zap.Int("level", level))
			b.spin()
			cur = slotPtr.Load()
			if cur == nil {
				continue
			}
		}
		if cur.id.Equal(id) {
			return cur, nil
		}

		next := cur.next.Load()
		if next == nil {
			width := bucketSize(id.Len, level+1, s.bitsFor)
			if width == 0 {
				return nil, ErrNodeCreationMaxRetry
			}
			fresh := newPrefixSet[M](width)
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

// Upsert applies the read-copy-update merge protocol from spec.md §4.4.
// On a brand-new slot, a losing CAS against an empty head returns
// ErrPrefixAlreadyExists so the caller can re-enter the upsert path
// (which will now observe the winner's head and merge against it); on an
// already-occupied slot, the merge/CAS retry happens internally with
// backoff and never surfaces an error, matching the documented
// propagation policy (§7).
func (s *PrefixStore[M]) Upsert(id af.PrefixID, incoming M, merger Merger[M]) error {
	slot, err := s.descend(id)
	if err != nil {
		return err
	}

	head := slot.head.Load()
	if head == nil {
		fresh := &record[M]{meta: incoming}
		if slot.head.CompareAndSwap(nil, fresh) {
			slot.serial.Add(1)
			return nil
		}
		return ErrPrefixAlreadyExists
	}

	b := backoff{}
	for {
		merged := merger.Merge(head.meta, incoming)
		next := &record[M]{meta: merged}
		if slot.head.CompareAndSwap(head, next) {
			slot.serial.Add(1)
			superseded := head
			s.reg.Defer(func() { _ = superseded })
			return nil
		}
		head = slot.head.Load()
		s.log.Debug("prefix merge CAS contention, retrying", zap.Uint8("length", id.Len))
		b.spin()
	}
}

// Retrieve returns the current metadata for an exact prefix match
// without creating anything, for use on the read path.
func (s *PrefixStore[M]) Retrieve(id af.PrefixID) (meta M, ok bool) {
	set := s.roots[id.Len].Load()
	if set == nil {
		return meta, false
	}
	level := 0
	for level < maxChainDepth {
		idx, _, lvlOK := hashIndex(id.Addr, id.Len, level, s.bitsFor)
		if !lvlOK {
			return meta, false
		}
		cur := set.slots[idx].Load()
		if cur == nil {
			return meta, false
		}
		if cur.id.Equal(id) {
			head := cur.head.Load()
			if head == nil {
				return meta, false
			}
			return head.meta, true
		}
		next := cur.next.Load()
		if next == nil {
			return meta, false
		}
		set = next
		level++
	}
	return meta, false
}

// Walk invokes fn for every occupied slot stored at length length,
// including slots in the chained next-level sets reached on collision,
// used by more-specifics enumeration (spec.md §4.4) to find every stored
// prefix at a longer length without trie traversal.
func (s *PrefixStore[M]) Walk(length uint8, fn func(id af.PrefixID, meta M)) {
	set := s.roots[length].Load()
	if set == nil {
		return
	}
	s.walkSet(set, fn)
}

func (s *PrefixStore[M]) walkSet(set *PrefixSet[M], fn func(id af.PrefixID, meta M)) {
	for i := range set.slots {
		cur := set.slots[i].Load()
		if cur == nil {
			continue
		}
		if head := cur.head.Load(); head != nil {
			fn(cur.id, head.meta)
		}
		if next := cur.next.Load(); next != nil {
			s.walkSet(next, fn)
		}
	}
}
