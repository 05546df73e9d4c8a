// Package bloom provides a probabilistic membership filter over uint64
// keys. The churn driver uses it to guarantee that negative probes are
// disjoint from the inserted key set: a false positive only rejects a
// candidate probe, it can never let a colliding key through.
package bloom

import (
	"encoding/binary"
	"math"

	"github.com/spaolacci/murmur3"
)

// Filter is a bloom filter keyed by uint64 values. It guarantees no
// false negatives: a key that was added always tests as possibly
// present. The harness is single-threaded, so the filter is unlocked.
type Filter struct {
	bits      []uint64
	numBits   uint64
	numHashes uint64
	count     uint64
}

// New creates a Filter with the given number of bits and hash functions.
func New(numBits, numHashes int) *Filter {
	if numBits <= 0 {
		numBits = 1024
	}
	if numHashes <= 0 {
		numHashes = 7
	}

	// Round up to whole 64-bit words.
	numWords := (numBits + 63) / 64

	return &Filter{
		bits:      make([]uint64, numWords),
		numBits:   uint64(numWords * 64),
		numHashes: uint64(numHashes),
	}
}

// NewWithEstimates creates a Filter sized for the expected number of
// keys and target false positive rate.
func NewWithEstimates(expectedKeys int, targetFPR float64) *Filter {
	numBits, numHashes := OptimalParameters(expectedKeys, targetFPR)
	return New(numBits, numHashes)
}

// OptimalParameters calculates the optimal bit and hash counts for an
// expected key count and target false positive rate.
//
// The formulas are:
//   - m = -n * ln(p) / (ln(2)^2)  where m = bits, n = keys, p = FPR
//   - k = (m/n) * ln(2)           where k = hash functions
func OptimalParameters(expectedKeys int, targetFPR float64) (numBits, numHashes int) {
	if expectedKeys <= 0 {
		expectedKeys = 1000
	}
	if targetFPR <= 0 || targetFPR >= 1 {
		targetFPR = 0.01
	}

	n := float64(expectedKeys)
	ln2 := math.Ln2

	m := -n * math.Log(targetFPR) / (ln2 * ln2)
	numBits = int(math.Ceil(m))

	k := (m / n) * ln2
	numHashes = int(math.Ceil(k))

	if numBits < 64 {
		numBits = 64
	}
	if numHashes < 1 {
		numHashes = 1
	}

	return numBits, numHashes
}

// Add inserts a key into the filter.
func (f *Filter) Add(key uint64) {
	h1, h2 := hash128(key)

	for i := uint64(0); i < f.numHashes; i++ {
		// Double hashing: h(i) = h1 + i*h2
		pos := (h1 + i*h2) % f.numBits
		f.bits[pos/64] |= 1 << (pos % 64)
	}
	f.count++
}

// MayContain tests a key. True means possibly present (false positives
// happen); false means definitely absent.
func (f *Filter) MayContain(key uint64) bool {
	h1, h2 := hash128(key)

	for i := uint64(0); i < f.numHashes; i++ {
		pos := (h1 + i*h2) % f.numBits
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}

// Count returns the number of keys added.
func (f *Filter) Count() uint64 {
	return f.count
}

// FalsePositiveRate estimates the current false positive rate from the
// fill ratio: (1 - e^(-k*n/m))^k.
func (f *Filter) FalsePositiveRate() float64 {
	if f.count == 0 {
		return 0
	}

	k := float64(f.numHashes)
	n := float64(f.count)
	m := float64(f.numBits)

	return math.Pow(1-math.Exp(-k*n/m), k)
}

// hash128 computes the murmur3 128-bit hash of the key's little-endian
// encoding and returns it as two 64-bit values.
func hash128(key uint64) (uint64, uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return murmur3.Sum128(buf[:])
}
