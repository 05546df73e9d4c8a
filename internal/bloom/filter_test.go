package bloom

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_NoFalseNegatives(t *testing.T) {
	f := NewWithEstimates(10000, 0.01)
	rng := rand.New(rand.NewSource(1))

	keys := make([]uint64, 10000)
	for i := range keys {
		keys[i] = rng.Uint64()
		f.Add(keys[i])
	}

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "added key %d must test present", k)
	}
	assert.Equal(t, uint64(10000), f.Count())
}

func TestFilter_FalsePositiveRateNearTarget(t *testing.T) {
	const n = 50000
	f := NewWithEstimates(n, 0.01)
	rng := rand.New(rand.NewSource(2))

	present := make(map[uint64]struct{}, n)
	for len(present) < n {
		k := rng.Uint64()
		if _, ok := present[k]; ok {
			continue
		}
		present[k] = struct{}{}
		f.Add(k)
	}

	falsePositives := 0
	probes := 0
	for probes < 100000 {
		k := rng.Uint64()
		if _, ok := present[k]; ok {
			continue
		}
		probes++
		if f.MayContain(k) {
			falsePositives++
		}
	}

	rate := float64(falsePositives) / float64(probes)
	assert.Less(t, rate, 0.03, "observed FPR should stay near the 1%% target")
	assert.InDelta(t, rate, f.FalsePositiveRate(), 0.02)
}

func TestOptimalParameters(t *testing.T) {
	bits, hashes := OptimalParameters(1000, 0.01)
	assert.Greater(t, bits, 9000, "roughly 9.6 bits per key at 1%% FPR")
	assert.Less(t, bits, 11000)
	assert.Equal(t, 7, hashes)

	// Nonsense inputs fall back to sane defaults rather than failing.
	bits, hashes = OptimalParameters(0, 2.0)
	assert.GreaterOrEqual(t, bits, 64)
	assert.GreaterOrEqual(t, hashes, 1)
}

func TestFilter_EmptyContainsNothing(t *testing.T) {
	f := New(1024, 7)
	assert.False(t, f.MayContain(42))
	assert.Zero(t, f.FalsePositiveRate())
}
