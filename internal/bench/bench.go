// Package bench measures per-query latency of range refinement and
// validates every refined position against ground truth.
package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/search"
	"github.com/veridex/veridex/pkg/index"
	"github.com/veridex/veridex/pkg/types"
)

// Sink receives the accumulated positions of a timed pass so the
// refinement work cannot be elided. Exported for the same reason the
// value exists at all: an observable side effect.
var Sink uint64

// Tally counts validated query outcomes for one run. A nonzero Incorrect
// count signals a contract violation in the index under test, not a
// harness bug; it is measured, reported, and never aborts the run.
type Tally struct {
	Correct   int
	Incorrect int
}

// Oracle compares refined positions against ground truth and accumulates
// a Tally. State is explicit per run rather than package-global so
// pipelines stay composable.
type Oracle struct {
	// Diag, when non-nil, receives one line per mismatch identifying the
	// key and the approximate range that produced the wrong refinement.
	Diag io.Writer

	tally Tally
}

// Observe records one refined position. It returns true when the
// position matches ground truth.
func (o *Oracle) Observe(key types.Key, r types.ApproxRange, got, want int) bool {
	if got == want {
		o.tally.Correct++
		return true
	}
	o.tally.Incorrect++
	if o.Diag != nil {
		fmt.Fprintf(o.Diag, "incorrect result for lookup key %d: lo=%d hi=%d got=%d want=%d\n",
			key, r.Lo, r.Hi, got, want)
	}
	return false
}

// Tally returns the accumulated counts.
func (o *Oracle) Tally() Tally {
	return o.tally
}

// SearchFunc is the unary operation timed over a workload: it resolves
// key to a computed position, with the expected position available for
// validation.
type SearchFunc func(key types.Key, expectedPos int) int

// Measure applies fn to every query sequentially on the calling
// goroutine and returns total elapsed wall-clock time. The sum of all
// computed positions is published to Sink after the clock stops. One
// pass, no warm-up, no outlier trimming.
func Measure(queries []types.Query, fn SearchFunc) time.Duration {
	start := time.Now()
	var acc uint64
	for _, q := range queries {
		acc += uint64(fn(q.Key, q.ExpectedPos))
	}
	elapsed := time.Since(start)
	Sink = acc
	return elapsed
}

// Result summarizes one static benchmark run.
type Result struct {
	RunID          string
	Dataset        string
	Queries        int
	Elapsed        time.Duration
	MeanNsPerQuery float64
	Tally          Tally
	IndexBytes     int
}

// Report writes the unstructured result lines the harness emits on
// stdout, in the dataset:nanoseconds form downstream tooling greps for.
func (r Result) Report(w io.Writer) {
	fmt.Fprintf(w, "%s:%d\n", r.Dataset, int64(r.MeanNsPerQuery))
	fmt.Fprintf(w, "Correct: %d - Incorrect: %d\n", r.Tally.Correct, r.Tally.Incorrect)
	fmt.Fprintf(w, "run=%s queries=%d elapsed=%s index_bytes=%d\n",
		r.RunID, r.Queries, r.Elapsed, r.IndexBytes)
}

// StaticRun wires the static pipeline together: the index under test
// produces an approximate range per key, the configured refiner narrows
// it, and the oracle validates the outcome while the whole step is
// timed.
type StaticRun struct {
	Dataset string
	Data    []uint64
	Index   index.Approximate

	// Branchless selects the prefetching refiner; the branching
	// reference search is used otherwise. Both are exact.
	Branchless bool

	// Diag receives per-mismatch diagnostics when non-nil.
	Diag io.Writer
}

// Execute runs the full workload once and returns the measured result.
func (s *StaticRun) Execute(queries []types.Query) Result {
	refine := search.Refiner(search.LowerBound)
	if s.Branchless {
		refine = search.LowerBoundBranchless
	}

	oracle := &Oracle{Diag: s.Diag}
	elapsed := Measure(queries, func(key types.Key, expectedPos int) int {
		r := s.Index.Search(key)
		pos := refine(s.Data, r, key)
		oracle.Observe(key, r, pos, expectedPos)
		return pos
	})

	mean := 0.0
	if len(queries) > 0 {
		mean = float64(elapsed.Nanoseconds()) / float64(len(queries))
	}

	return Result{
		RunID:          uuid.NewString(),
		Dataset:        s.Dataset,
		Queries:        len(queries),
		Elapsed:        elapsed,
		MeanNsPerQuery: mean,
		Tally:          oracle.Tally(),
		IndexBytes:     s.Index.IndexSizeInBytes(),
	}
}
