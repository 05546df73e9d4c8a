// Package ordered provides a B-tree-backed reference implementation of
// the dynamic index contract. It stands in for an external mutable
// learned index so the churn driver can run and be tested end to end.
package ordered

import (
	"github.com/google/btree"

	"github.com/veridex/veridex/pkg/types"
)

type entry struct {
	key   types.Key
	value uint64
}

// bytesPerEntry approximates the in-tree footprint of one entry: the
// key/value pair plus amortized node overhead.
const bytesPerEntry = 24

// Map is an ordered key/value map satisfying index.Dynamic.
type Map struct {
	tree *btree.BTreeG[entry]
}

// New creates an empty Map.
func New() *Map {
	return &Map{
		tree: btree.NewG(32, func(a, b entry) bool { return a.key < b.key }),
	}
}

// InsertOrAssign inserts key or updates its value in place.
func (m *Map) InsertOrAssign(key types.Key, value uint64) {
	m.tree.ReplaceOrInsert(entry{key: key, value: value})
}

// Erase removes key if present. Erasing an absent key is a no-op.
func (m *Map) Erase(key types.Key) {
	m.tree.Delete(entry{key: key})
}

// Find reports the value stored under key and whether it is present.
func (m *Map) Find(key types.Key) (uint64, bool) {
	e, ok := m.tree.Get(entry{key: key})
	if !ok {
		return 0, false
	}
	return e.value, true
}

// Len returns the number of live keys.
func (m *Map) Len() int {
	return m.tree.Len()
}

// IndexSizeInBytes estimates the memory held by the tree.
func (m *Map) IndexSizeInBytes() int {
	return m.tree.Len() * bytesPerEntry
}
