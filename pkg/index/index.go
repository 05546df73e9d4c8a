// Package index defines the contracts an external approximate index must
// satisfy to be driven by the Veridex harness. The harness never looks
// inside an index; it only exercises these interfaces.
package index

import "github.com/veridex/veridex/pkg/types"

// Approximate is a read-only learned index over a sorted backing array.
// Search trades exactness for speed: instead of a position it returns a
// bounded range the caller refines with a restricted lower-bound search.
type Approximate interface {
	// Search returns a range satisfying the types.ApproxRange contract
	// for key: the exact lower-bound position of key in the backing data
	// is refinable from [Lo, Hi).
	Search(key types.Key) types.ApproxRange

	// IndexSizeInBytes reports the memory footprint of the index
	// structure itself, excluding the backing data. Introspection only.
	IndexSizeInBytes() int
}

// Dynamic is an update-capable ordered index. Absence of a key is a
// normal outcome on Find and Erase, never an error.
type Dynamic interface {
	// InsertOrAssign inserts key with value, or updates the value of an
	// existing key. It always succeeds for well-formed keys.
	InsertOrAssign(key types.Key, value uint64)

	// Erase removes key if present; erasing an absent key is a no-op.
	Erase(key types.Key)

	// Find reports the value stored under key and whether it is present.
	Find(key types.Key) (uint64, bool)

	// Len returns the number of live keys.
	Len() int

	// IndexSizeInBytes reports the memory footprint of the index.
	IndexSizeInBytes() int
}
