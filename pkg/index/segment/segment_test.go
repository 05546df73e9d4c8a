package segment

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/veridex/internal/search"
	"github.com/veridex/veridex/pkg/types"
)

func sortedRandom(rng *rand.Rand, n int, valueRange uint64) []uint64 {
	data := make([]uint64, n)
	for i := range data {
		data[i] = rng.Uint64() % valueRange
	}
	sort.Slice(data, func(i, j int) bool { return data[i] < data[j] })
	return data
}

func exactLowerBound(data []uint64, key uint64) int {
	return sort.Search(len(data), func(i int) bool { return data[i] >= key })
}

func TestSearchContainsExactPosition(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := sortedRandom(rng, 50_000, 1<<40)
	idx := New(data, 256)

	for trial := 0; trial < 20_000; trial++ {
		var key uint64
		if trial%2 == 0 {
			key = data[rng.Intn(len(data))]
		} else {
			key = rng.Uint64() % (1 << 41)
		}
		want := exactLowerBound(data, key)
		r := idx.Search(key)

		require.True(t, r.Lo >= 0 && r.Hi <= len(data), "range out of bounds: %+v", r)
		require.True(t, r.Contains(want),
			"key %d: position %d outside range [%d, %d]", key, want, r.Lo, r.Hi)
	}
}

func TestSearchRefinesExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	data := sortedRandom(rng, 10_000, 1<<20)
	idx := New(data, 64)

	for trial := 0; trial < 5_000; trial++ {
		key := rng.Uint64() % (1 << 21)
		want := exactLowerBound(data, key)
		r := idx.Search(key)
		assert.Equal(t, want, search.LowerBoundBranchless(data, r, key))
		assert.Equal(t, want, search.LowerBound(data, r, key))
	}
}

func TestSearchDuplicateHeavyData(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := sortedRandom(rng, 20_000, 100) // long runs of equal keys
	idx := New(data, 32)

	for key := uint64(0); key <= 101; key++ {
		want := exactLowerBound(data, key)
		r := idx.Search(key)
		require.True(t, r.Contains(want), "key %d: position %d outside [%d, %d]", key, want, r.Lo, r.Hi)
		assert.Equal(t, want, search.LowerBoundBranchless(data, r, key))
	}
}

func TestSearchBoundaryKeys(t *testing.T) {
	data := []uint64{10, 20, 30, 40, 50}
	idx := New(data, 4)

	assert.Equal(t, types.ApproxRange{Lo: 0, Hi: 1}, idx.Search(0))
	assert.Equal(t, types.ApproxRange{Lo: 0, Hi: 1}, idx.Search(10))
	assert.Equal(t, types.ApproxRange{Lo: 4, Hi: 5}, idx.Search(51))

	// Past-the-end position must be reachable for keys above the max.
	r := idx.Search(51)
	assert.Equal(t, 5, search.LowerBoundBranchless(data, r, 51))
}

func TestSearchGapAfterLongRun(t *testing.T) {
	// A long run followed by a sparse tail: keys probing the gap must
	// land one past the run, far from any first-occurrence rank.
	data := make([]uint64, 0, 1001)
	for i := 0; i < 1000; i++ {
		data = append(data, 5)
	}
	data = append(data, 99)
	idx := New(data, 1)

	for _, key := range []uint64{6, 42, 98, 99} {
		r := idx.Search(key)
		require.True(t, r.Contains(1000), "key %d: range [%d, %d]", key, r.Lo, r.Hi)
		assert.Equal(t, 1000, search.LowerBoundBranchless(data, r, key))
	}
}

func TestSearchAllEqualKeys(t *testing.T) {
	data := []uint64{7, 7, 7, 7}
	idx := New(data, 8)

	assert.Equal(t, 0, search.LowerBoundBranchless(data, idx.Search(7), 7))
	assert.Equal(t, 0, search.LowerBoundBranchless(data, idx.Search(3), 3))
	assert.Equal(t, 4, search.LowerBoundBranchless(data, idx.Search(8), 8))
}

func TestEmptyData(t *testing.T) {
	idx := New(nil, 16)
	assert.Equal(t, types.ApproxRange{}, idx.Search(42))
	assert.Equal(t, 0, idx.MaxError())
}

func TestIndexSizeGrowsWithFanout(t *testing.T) {
	data := sortedRandom(rand.New(rand.NewSource(4)), 1_000, 1<<30)
	small := New(data, 16)
	large := New(data, 1024)
	assert.Greater(t, large.IndexSizeInBytes(), small.IndexSizeInBytes())
}

func TestMaxErrorShrinksWithFanout(t *testing.T) {
	data := sortedRandom(rand.New(rand.NewSource(5)), 100_000, 1<<35)
	coarse := New(data, 8)
	fine := New(data, 2048)
	assert.LessOrEqual(t, fine.MaxError(), coarse.MaxError())
}
