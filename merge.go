package rib

import "github.com/rotonda-go/rib/internal/store"

// Merger reconciles an existing metadata value with an incoming one
// whenever an insert targets a prefix that is already stored. It is the
// sole caller-supplied hook into the read-copy-update upsert protocol
// (spec.md §4.4); this package never mutates metadata on the caller's
// behalf beyond what Merge returns.
//
// Merge may be invoked more than once for the same (existing, incoming)
// pairing under CAS contention -- it must be safe to call repeatedly
// with the same inputs.
type Merger[M any] = store.Merger[M]

// MergerFunc adapts a plain function to a Merger, the way
// http.HandlerFunc adapts a function to http.Handler.
type MergerFunc[M any] func(existing, incoming M) M

// Merge implements Merger.
func (f MergerFunc[M]) Merge(existing, incoming M) M { return f(existing, incoming) }
