package store

import "errors"

// Sentinel errors forming the error taxonomy (spec.md §7), surfaced
// through the root package unchanged.
var (
	// ErrNodeCreationMaxRetry means a node or prefix slot search ran past
	// the last chain level the bits-for-level table provides, or past
	// maxChainDepth levels. CAS retries on a slot are not bounded.
	ErrNodeCreationMaxRetry = errors.New("store: node creation exceeded max retries")

	// ErrNodeNotFound means a node referenced by a parent's ptrbitarr is
	// missing from the store -- an invariant breach, not a normal miss.
	ErrNodeNotFound = errors.New("store: referenced node not found")

	// ErrPrefixAlreadyExists means the null-head CAS for a brand-new
	// prefix lost to a concurrent writer. Transient: the caller should
	// re-enter the upsert path, which will now see an occupied head.
	ErrPrefixAlreadyExists = errors.New("store: prefix already exists")
)
