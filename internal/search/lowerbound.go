// Package search implements exact lower-bound refinement over a sorted
// uint64 slice, restricted to an approximate position range.
//
// Two interchangeable variants are provided. LowerBound is the plain
// branching binary search and is the sole source of truth for
// correctness. LowerBoundBranchless is the measured variant: its inner
// loop touches both candidate midpoints of the next iteration to pull
// their cache lines early, and narrows the window with an arithmetic
// select instead of a data-dependent branch.
package search

import "github.com/veridex/veridex/pkg/types"

// Refiner narrows an approximate range over data to the exact lower-bound
// position of key. Both implementations in this package satisfy it and
// are semantically interchangeable.
type Refiner func(data []uint64, r types.ApproxRange, key uint64) int

// LowerBound returns the position of the first element in data[r.Lo:r.Hi]
// that is not less than key, or r.Hi if every element in the window
// compares less. Plain branching binary search.
func LowerBound(data []uint64, r types.ApproxRange, key uint64) int {
	lo, hi := r.Lo, r.Hi
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if data[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// touched absorbs the speculative midpoint loads so they cannot be
// eliminated as dead code.
var touched uint64

// LowerBoundBranchless behaves exactly like LowerBound but keeps the
// inner loop free of data-dependent branches. Each iteration loads the
// two positions that can become the midpoint of the next iteration
// before the window narrows, hiding memory latency on datasets that
// overflow the cache.
func LowerBoundBranchless(data []uint64, r types.ApproxRange, key uint64) int {
	first := r.Lo
	n := r.Hi - r.Lo
	if n <= 0 {
		return first
	}

	var sink uint64
	for n > 1 {
		half := n / 2
		// Both candidate midpoints of the next iteration. The loads
		// double as prefetches; half+half/2 <= n-1 keeps them in
		// bounds for every n > 1.
		sink += data[first+half/2]
		sink += data[first+half+half/2]
		first += half * b2i(data[first+half] < key)
		n -= half
	}
	touched = sink

	return first + b2i(data[first] < key)
}

// b2i converts a comparison result to 0 or 1. The compiler lowers this
// to a flag move, so callers stay branch-free.
func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
