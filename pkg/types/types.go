// Package types provides core data types shared across the Veridex harness.
package types

// Key is a fixed-width unsigned integer lookup key. The harness is
// specialized to 64-bit keys; narrower dataset encodings are widened at
// load time.
type Key = uint64

// Query pairs a lookup key with its ground-truth lower-bound position in
// the backing dataset: the index of the first element not less than Key,
// or the dataset length if every element is smaller.
type Query struct {
	Key         Key
	ExpectedPos int
}

// ApproxRange is a half-open [Lo, Hi) index range produced by an
// approximate index. The exact lower-bound position of the queried key is
// guaranteed by the index contract to be reachable from it: every
// in-range position lies within [Lo, Hi), and the past-the-window
// position Hi itself is reachable when all elements in the window compare
// less than the key.
type ApproxRange struct {
	Lo int
	Hi int
}

// Width returns the number of candidate positions in the range.
func (r ApproxRange) Width() int {
	return r.Hi - r.Lo
}

// Contains reports whether pos is refinable from the range, which admits
// both the half-open window and its past-the-end boundary.
func (r ApproxRange) Contains(pos int) bool {
	return pos >= r.Lo && pos <= r.Hi
}
