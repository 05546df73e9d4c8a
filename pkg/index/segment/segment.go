// Package segment provides a reference approximate index: a bucketed
// linear-interpolation model over the key space with measured per-bucket
// error bounds. It exists so the harness has a real, contract-honoring
// collaborator to benchmark and test against; production learned
// indexes are external and only need to satisfy the same contract.
package segment

import (
	"github.com/veridex/veridex/pkg/types"
)

// DefaultFanout is the bucket count used when none is given. More
// buckets mean tighter ranges and a larger model.
const DefaultFanout = 1024

// Index predicts positions by interpolating between the known ranks of
// evenly spaced key-space boundaries, corrected by the worst deviation
// observed in each bucket during the build. The returned range always
// satisfies the types.ApproxRange contract, for absent keys as well as
// present ones.
type Index struct {
	min, max uint64
	n        int
	fanout   int

	// cuts[i] is the exact rank of the i-th bucket boundary key;
	// cuts[fanout] == n. Monotone non-decreasing.
	cuts []int

	// minErr bounds first-occurrence-rank minus prediction over each
	// bucket's keys; maxErr bounds one-past-the-run minus prediction.
	// Together they cover the lower-bound step function for every key
	// mapped to the bucket, including keys in the gaps between runs.
	minErr []int
	maxErr []int
}

// New builds an index over data, which must be sorted ascending
// (duplicates allowed). The data itself is not retained; refinement
// happens against the caller's copy.
func New(data []uint64, fanout int) *Index {
	if fanout <= 0 {
		fanout = DefaultFanout
	}

	idx := &Index{
		n:      len(data),
		fanout: fanout,
		cuts:   make([]int, fanout+1),
		minErr: make([]int, fanout),
		maxErr: make([]int, fanout),
	}
	if len(data) == 0 {
		return idx
	}

	idx.min = data[0]
	idx.max = data[len(data)-1]

	for i := 1; i < fanout; i++ {
		idx.cuts[i] = lowerBound(data, idx.boundary(i))
	}
	idx.cuts[fanout] = len(data)

	// Measure how far interpolation strays from the true lower bound.
	// The lower side uses the first-occurrence rank of each run; the
	// upper side uses one past each position, which is where the lower
	// bound lands for keys falling in the gap after a run.
	rank := 0
	for j, key := range data {
		if j > 0 && key != data[j-1] {
			rank = j
		}
		b := idx.bucketOf(key)
		pred := idx.interpolate(b, key)
		if err := rank - pred; err < idx.minErr[b] {
			idx.minErr[b] = err
		}
		if err := j + 1 - pred; err > idx.maxErr[b] {
			idx.maxErr[b] = err
		}
	}

	return idx
}

// Search returns a range the exact lower-bound position of key is
// refinable from.
func (idx *Index) Search(key types.Key) types.ApproxRange {
	if idx.n == 0 {
		return types.ApproxRange{}
	}
	if key <= idx.min {
		return types.ApproxRange{Lo: 0, Hi: 1}
	}
	if key > idx.max {
		return types.ApproxRange{Lo: idx.n - 1, Hi: idx.n}
	}

	b := idx.bucketOf(key)
	pred := idx.interpolate(b, key)
	lo := pred + idx.minErr[b] - 1
	hi := pred + idx.maxErr[b] + 1

	// Bucket rank bounds hold for any key mapped to the bucket, with
	// one neighboring bucket of slack against float rounding at the
	// boundaries.
	if floor := idx.cuts[maxInt(b-1, 0)]; lo < floor {
		lo = floor
	}
	if ceil := idx.cuts[minInt(b+2, idx.fanout)]; hi > ceil {
		hi = ceil
	}
	if hi < lo {
		hi = lo
	}

	if hi < idx.n {
		hi++
	}
	return types.ApproxRange{Lo: lo, Hi: hi}
}

// IndexSizeInBytes reports the model footprint: the cut and error
// tables.
func (idx *Index) IndexSizeInBytes() int {
	return 8 * (len(idx.cuts) + len(idx.minErr) + len(idx.maxErr) + 4)
}

// MaxError returns the widest error spread across buckets, a rough
// analogue of a learned index's epsilon.
func (idx *Index) MaxError() int {
	worst := 0
	for b := 0; b < idx.fanout; b++ {
		if spread := idx.maxErr[b] - idx.minErr[b]; spread > worst {
			worst = spread
		}
	}
	return worst
}

// boundary returns the key at the i-th evenly spaced key-space cut.
func (idx *Index) boundary(i int) uint64 {
	span := float64(idx.max - idx.min)
	return idx.min + uint64(span*float64(i)/float64(idx.fanout))
}

// bucketOf maps a key in [min, max] to its bucket.
func (idx *Index) bucketOf(key uint64) int {
	span := float64(idx.max - idx.min)
	if span == 0 {
		return 0
	}
	b := int(float64(key-idx.min) / span * float64(idx.fanout))
	if b >= idx.fanout {
		b = idx.fanout - 1
	}
	if b < 0 {
		b = 0
	}
	return b
}

// interpolate predicts the rank of key within bucket b from the known
// ranks of the bucket's boundaries.
func (idx *Index) interpolate(b int, key uint64) int {
	blo, bhi := idx.boundary(b), idx.boundary(b+1)
	posLo, posHi := idx.cuts[b], idx.cuts[b+1]
	if bhi <= blo || posHi <= posLo {
		return posLo
	}
	frac := float64(key-blo) / float64(bhi-blo)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return posLo + int(frac*float64(posHi-posLo))
}

func lowerBound(data []uint64, key uint64) int {
	lo, hi := 0, len(data)
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

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
