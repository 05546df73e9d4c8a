// Package benchmark provides performance benchmarks for the veridex harness.
package benchmark

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/veridex/veridex/internal/bench"
	"github.com/veridex/veridex/internal/dataset"
	"github.com/veridex/veridex/internal/search"
	"github.com/veridex/veridex/internal/workload"
	"github.com/veridex/veridex/pkg/index/ordered"
	"github.com/veridex/veridex/pkg/index/segment"
	"github.com/veridex/veridex/pkg/types"
)

// BenchmarkRefineBranchless measures the branch-free refiner over
// realistic narrow windows produced by the reference index.
func BenchmarkRefineBranchless(b *testing.B) {
	benchmarkRefiner(b, search.LowerBoundBranchless)
}

// BenchmarkRefineBranching is the baseline the branch-free variant is
// compared against.
func BenchmarkRefineBranching(b *testing.B) {
	benchmarkRefiner(b, search.LowerBound)
}

func benchmarkRefiner(b *testing.B, refine search.Refiner) {
	data := syntheticDataset(1_000_000, 42)
	idx := segment.New(data, 1024)

	gen := workload.NewGenerator(workload.PolicySampled, 42)
	queries, err := gen.Generate(data, 100_000)
	if err != nil {
		b.Fatal(err)
	}

	ranges := make([]types.ApproxRange, len(queries))
	for i, q := range queries {
		ranges[i] = idx.Search(q.Key)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q := queries[i%len(queries)]
		bench.Sink += uint64(refine(data, ranges[i%len(queries)], q.Key))
	}
}

// BenchmarkStaticPipeline measures the full lookup path: model
// prediction plus refinement, the figure the harness reports per run.
func BenchmarkStaticPipeline(b *testing.B) {
	data := syntheticDataset(1_000_000, 42)
	idx := segment.New(data, 1024)

	gen := workload.NewGenerator(workload.PolicyUniformRange, 42)
	queries, err := gen.Generate(data, 100_000)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q := queries[i%len(queries)]
		r := idx.Search(q.Key)
		bench.Sink += uint64(search.LowerBoundBranchless(data, r, q.Key))
	}
}

// BenchmarkIndexBuild measures model construction over a 1M dataset.
func BenchmarkIndexBuild(b *testing.B) {
	data := syntheticDataset(1_000_000, 7)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		idx := segment.New(data, 1024)
		bench.Sink += uint64(idx.IndexSizeInBytes())
	}
}

// BenchmarkOrderedMapChurn measures raw B-tree mutation throughput, the
// floor any dynamic index under test is compared against.
func BenchmarkOrderedMapChurn(b *testing.B) {
	keys := syntheticDataset(100_000, 3)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		m := ordered.New()
		for _, k := range keys {
			m.InsertOrAssign(k, 1)
		}
		for j, k := range keys {
			if j%2 == 0 {
				m.Erase(k)
			}
		}
		bench.Sink += uint64(m.Len())
	}
}

// BenchmarkDatasetRoundTrip measures writing a compressed dataset,
// pushing it through object storage and loading it back.
func BenchmarkDatasetRoundTrip(b *testing.B) {
	st, cleanup := getBenchmarkStorage(b, "dataset-roundtrip")
	defer cleanup()

	data := syntheticDataset(500_000, 11)

	dir, err := os.MkdirTemp("", "veridex-roundtrip-*")
	if err != nil {
		b.Fatal(err)
	}
	defer os.RemoveAll(dir)

	local := filepath.Join(dir, "keys.bin.sz")
	if err := dataset.WriteFile(local, data); err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := st.Upload(ctx, local, "keys.bin.sz"); err != nil {
			b.Fatal(err)
		}
		fetched := filepath.Join(dir, "fetched.bin.sz")
		if err := st.Download(ctx, "keys.bin.sz", fetched); err != nil {
			b.Fatal(err)
		}
		loaded, err := dataset.Load(fetched)
		if err != nil {
			b.Fatal(err)
		}
		bench.Sink += loaded[len(loaded)-1]
	}

	b.SetBytes(int64(8 * len(data)))
}
