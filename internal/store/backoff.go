package store

import "runtime"

// backoff implements bounded exponential yield-based contention
// handling for the CAS retry loops in this package, grounded on
// crossbeam_utils::Backoff from the reference implementation this store
// is modeled on. There is no equivalent library in the example pack, so
// this stays on the standard library (runtime.Gosched).
type backoff struct {
	step uint
}

const backoffYieldAfter = 6

// spin yields the processor to the scheduler 2^step times, doubling the
// count on each call until step reaches backoffYieldAfter, so a
// long-contended CAS loop degrades into cooperative waiting instead of
// hammering the cache line.
func (b *backoff) spin() {
	if b.step < backoffYieldAfter {
		b.step++
	}
	for i := uint(0); i < uint(1)<<b.step; i++ {
		runtime.Gosched()
	}
}
