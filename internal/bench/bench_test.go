package bench

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridex/veridex/pkg/types"
)

func TestOracle_Tally(t *testing.T) {
	o := &Oracle{}
	r := types.ApproxRange{Lo: 0, Hi: 10}

	assert.True(t, o.Observe(5, r, 3, 3))
	assert.True(t, o.Observe(6, r, 4, 4))
	assert.False(t, o.Observe(7, r, 4, 5))

	tally := o.Tally()
	assert.Equal(t, 2, tally.Correct)
	assert.Equal(t, 1, tally.Incorrect)
}

func TestOracle_MismatchDiagnosticNamesKeyAndRange(t *testing.T) {
	var buf bytes.Buffer
	o := &Oracle{Diag: &buf}

	o.Observe(1234, types.ApproxRange{Lo: 7, Hi: 19}, 8, 9)

	out := buf.String()
	assert.Contains(t, out, "1234")
	assert.Contains(t, out, "lo=7")
	assert.Contains(t, out, "hi=19")
}

func TestOracle_MatchEmitsNoDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	o := &Oracle{Diag: &buf}

	o.Observe(1, types.ApproxRange{Lo: 0, Hi: 1}, 0, 0)
	assert.Empty(t, buf.String())
}

func TestMeasure_AppliesEveryQueryAndFeedsSink(t *testing.T) {
	queries := []types.Query{
		{Key: 1, ExpectedPos: 10},
		{Key: 2, ExpectedPos: 20},
		{Key: 3, ExpectedPos: 30},
	}

	var seen []types.Key
	elapsed := Measure(queries, func(key types.Key, expectedPos int) int {
		seen = append(seen, key)
		return expectedPos
	})

	assert.Equal(t, []types.Key{1, 2, 3}, seen)
	assert.Equal(t, uint64(60), Sink, "sink must observe the accumulated positions")
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
}

// exactIndex is a collaborator that always returns a tight valid range,
// so the pipeline must come out all-correct.
type exactIndex struct {
	data []uint64
}

func (e *exactIndex) Search(key types.Key) types.ApproxRange {
	lo := 0
	hi := len(e.data)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if e.data[mid] < key {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	wlo := lo - 2
	if wlo < 0 {
		wlo = 0
	}
	whi := lo + 2
	if whi > len(e.data) {
		whi = len(e.data)
	}
	if whi <= wlo {
		whi = wlo + 1
		if whi > len(e.data) {
			wlo, whi = len(e.data)-1, len(e.data)
		}
	}
	return types.ApproxRange{Lo: wlo, Hi: whi}
}

func (e *exactIndex) IndexSizeInBytes() int { return 0 }

// brokenIndex violates the range contract for every key above a cutoff.
type brokenIndex struct {
	inner  *exactIndex
	cutoff types.Key
}

func (b *brokenIndex) Search(key types.Key) types.ApproxRange {
	if key > b.cutoff {
		return types.ApproxRange{Lo: 0, Hi: 1}
	}
	return b.inner.Search(key)
}

func (b *brokenIndex) IndexSizeInBytes() int { return 0 }

func TestStaticRun_AllCorrectWithValidIndex(t *testing.T) {
	data := []uint64{1, 3, 3, 7, 9, 12, 15, 40, 41, 90}
	queries := []types.Query{
		{Key: 3, ExpectedPos: 1},
		{Key: 8, ExpectedPos: 4},
		{Key: 0, ExpectedPos: 0},
		{Key: 91, ExpectedPos: 10},
		{Key: 40, ExpectedPos: 7},
	}

	for _, branchless := range []bool{false, true} {
		run := &StaticRun{
			Dataset:    "inline",
			Data:       data,
			Index:      &exactIndex{data: data},
			Branchless: branchless,
		}
		res := run.Execute(queries)

		assert.Equal(t, 5, res.Tally.Correct, "branchless=%v", branchless)
		assert.Equal(t, 0, res.Tally.Incorrect, "branchless=%v", branchless)
		assert.Equal(t, 5, res.Queries)
		assert.NotEmpty(t, res.RunID)
	}
}

func TestStaticRun_CountsContractViolationsWithoutAborting(t *testing.T) {
	data := []uint64{1, 3, 3, 7, 9, 12, 15, 40, 41, 90}
	queries := []types.Query{
		{Key: 3, ExpectedPos: 1},
		{Key: 40, ExpectedPos: 7},
		{Key: 90, ExpectedPos: 9},
	}

	var diag bytes.Buffer
	run := &StaticRun{
		Dataset:    "inline",
		Data:       data,
		Index:      &brokenIndex{inner: &exactIndex{data: data}, cutoff: 10},
		Branchless: true,
		Diag:       &diag,
	}
	res := run.Execute(queries)

	assert.Equal(t, 1, res.Tally.Correct)
	assert.Equal(t, 2, res.Tally.Incorrect)
	assert.NotEmpty(t, diag.String())
}

func TestResult_ReportFormat(t *testing.T) {
	res := Result{
		RunID:          "run-1",
		Dataset:        "books_200M_uint64",
		Queries:        100,
		MeanNsPerQuery: 42.7,
		Tally:          Tally{Correct: 99, Incorrect: 1},
	}

	var buf bytes.Buffer
	res.Report(&buf)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "books_200M_uint64:42", lines[0])
	assert.Equal(t, "Correct: 99 - Incorrect: 1", lines[1])
	assert.Contains(t, lines[2], "run=run-1")
}
