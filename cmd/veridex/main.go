// Package main implements the unified veridex binary.
// One binary covers the static lookup benchmark, the dynamic churn
// driver and dataset registration, selected with the --mode flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"time"

	"github.com/veridex/veridex/internal/bench"
	"github.com/veridex/veridex/internal/churn"
	"github.com/veridex/veridex/internal/config"
	"github.com/veridex/veridex/internal/dataset"
	"github.com/veridex/veridex/internal/storage"
	"github.com/veridex/veridex/internal/workload"
	"github.com/veridex/veridex/pkg/index/ordered"
	"github.com/veridex/veridex/pkg/index/segment"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configFile  string
		dataDir     string
		mode        string
		dsName      string
		dsPath      string
		queries     int
		policy      string
		seed        int64
		branching   bool
		samples     int
		strict      bool
		verbose     bool
		showVersion bool
		showHelp    bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for downloads and the catalog")
	flag.StringVar(&mode, "mode", "", "Tool mode: bench, churn, register")
	flag.StringVar(&dsName, "dataset", "", "Catalog name of the dataset")
	flag.StringVar(&dsPath, "dataset-path", "", "Direct dataset file path (bypasses the catalog)")
	flag.IntVar(&queries, "queries", 0, "Number of lookups per bench run")
	flag.StringVar(&policy, "policy", "", "Query policy: sampled, uniform-range")
	flag.Int64Var(&seed, "seed", 0, "Workload seed (0 keeps the configured default)")
	flag.BoolVar(&branching, "branching", false, "Use the branching refiner instead of the branch-free one")
	flag.IntVar(&samples, "samples", 0, "Number of keys to insert in churn mode")
	flag.BoolVar(&strict, "strict", false, "Check churn lookups against the deletion pattern")
	flag.BoolVar(&verbose, "verbose", false, "Emit per-mismatch and stage diagnostics")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showHelp, "help", false, "Show help message")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Veridex - Evaluation Harness For Approximate Ordered Indexes\n\n")
		fmt.Fprintf(os.Stderr, "Usage: veridex [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  veridex --mode bench --dataset-path books.bin.sz\n")
		fmt.Fprintf(os.Stderr, "  veridex --mode bench --dataset books --policy uniform-range\n")
		fmt.Fprintf(os.Stderr, "  veridex --mode churn --samples 1000000 --strict\n")
		fmt.Fprintf(os.Stderr, "  veridex --mode register --dataset books --dataset-path books.bin.sz\n")
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  VERIDEX_MODE            Tool mode (bench, churn, register)\n")
		fmt.Fprintf(os.Stderr, "  VERIDEX_DATA_DIR        Base directory for downloads and the catalog\n")
		fmt.Fprintf(os.Stderr, "  VERIDEX_DATASET_NAME    Catalog name of the dataset\n")
		fmt.Fprintf(os.Stderr, "  VERIDEX_BENCH_*         Bench overrides (QUERIES, POLICY, SEED, BRANCHLESS)\n")
		fmt.Fprintf(os.Stderr, "  VERIDEX_CHURN_*         Churn overrides (SAMPLES, NEGATIVES, STRICT)\n")
		fmt.Fprintf(os.Stderr, "  VERIDEX_STORAGE_TYPE    Storage type (local, s3)\n")
		fmt.Fprintf(os.Stderr, "  VERIDEX_S3_BUCKET       S3 bucket for dataset objects\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("veridex version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadConfig(configFile, dataDir, mode, dsName, dsPath, policy, queries, seed, branching, samples, strict, verbose)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	printBanner(cfg)

	ctx := context.Background()

	switch cfg.Mode {
	case config.ModeBench:
		err = runBench(ctx, cfg)
	case config.ModeChurn:
		err = runChurn(cfg)
	case config.ModeRegister:
		err = runRegister(ctx, cfg)
	}
	if err != nil {
		log.Fatalf("%s run failed: %v", cfg.Mode, err)
	}
}

// loadConfig loads configuration from file, environment, and command line flags.
func loadConfig(configFile, dataDir, mode, dsName, dsPath, policy string, queries int, seed int64, branching bool, samples int, strict, verbose bool) (*config.Config, error) {
	var cfg *config.Config
	var err error

	// Start with defaults or load from file
	if configFile != "" {
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	} else {
		cfg = config.DefaultConfig()
	}

	// Apply environment variables
	config.LoadFromEnv(cfg)

	// Apply command line flags (highest priority)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if mode != "" {
		cfg.Mode = config.Mode(mode)
	}
	if dsName != "" {
		cfg.Dataset.Name = dsName
	}
	if dsPath != "" {
		cfg.Dataset.Path = dsPath
	}
	if policy != "" {
		cfg.Bench.Policy = policy
	}
	if queries > 0 {
		cfg.Bench.Queries = queries
	}
	if seed != 0 {
		cfg.Bench.Seed = seed
		cfg.Churn.Seed = seed
	}
	if branching {
		cfg.Bench.Branchless = false
	}
	if samples > 0 {
		cfg.Churn.Samples = samples
	}
	if strict {
		cfg.Churn.Strict = true
	}
	if verbose {
		cfg.Bench.Verbose = true
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// printBanner prints the startup banner with configuration summary.
func printBanner(cfg *config.Config) {
	log.Printf("Veridex %s", version)
	log.Printf("  Mode:     %s", cfg.Mode)
	log.Printf("  Data Dir: %s", cfg.DataDir)
	log.Printf("  Storage:  %s", cfg.Storage.Type)
	switch cfg.Mode {
	case config.ModeBench:
		log.Printf("  Queries:  %d (%s, seed %d)", cfg.Bench.Queries, cfg.Bench.Policy, cfg.Bench.Seed)
	case config.ModeChurn:
		log.Printf("  Samples:  %d (seed %d, strict=%v)", cfg.Churn.Samples, cfg.Churn.Seed, cfg.Churn.Strict)
	}
}

// newStorage builds the configured object storage backend.
func newStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	if cfg.Storage.Type == "s3" {
		return storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, storage.S3Config{
			Region:       cfg.Storage.S3.Region,
			Endpoint:     cfg.Storage.S3.Endpoint,
			UsePathStyle: cfg.Storage.S3.Endpoint != "",
		})
	}
	return storage.NewLocalStorage(cfg.Storage.Path)
}

// resolveDataset returns the local path of the dataset to load, fetching
// it from object storage via the catalog when no direct path is given.
func resolveDataset(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Dataset.Path != "" {
		return cfg.Dataset.Path, nil
	}
	if cfg.Dataset.Name == "" {
		return "", fmt.Errorf("either --dataset or --dataset-path is required")
	}

	catalog, err := dataset.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		return "", err
	}
	defer catalog.Close()

	rec, err := catalog.Get(ctx, cfg.Dataset.Name)
	if err != nil {
		return "", err
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return "", err
	}

	return dataset.Fetch(ctx, store, rec, cfg.Dataset.DownloadDir)
}

// runBench executes the static lookup benchmark and prints the report.
func runBench(ctx context.Context, cfg *config.Config) error {
	localPath, err := resolveDataset(ctx, cfg)
	if err != nil {
		return err
	}

	log.Printf("Loading dataset from %s", localPath)
	start := time.Now()
	data, err := dataset.Load(localPath)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d keys in %s", len(data), time.Since(start).Round(time.Millisecond))

	start = time.Now()
	idx := segment.New(data, cfg.Bench.Fanout)
	log.Printf("Built reference index in %s (%d bytes, max error %d)",
		time.Since(start).Round(time.Millisecond), idx.IndexSizeInBytes(), idx.MaxError())

	pol, err := workload.ParsePolicy(cfg.Bench.Policy)
	if err != nil {
		return err
	}
	gen := workload.NewGenerator(pol, cfg.Bench.Seed)
	queries, err := gen.Generate(data, cfg.Bench.Queries)
	if err != nil {
		return err
	}

	run := &bench.StaticRun{
		Dataset:    datasetLabel(cfg, localPath),
		Data:       data,
		Index:      idx,
		Branchless: cfg.Bench.Branchless,
	}
	if cfg.Bench.Verbose {
		run.Diag = os.Stderr
	}

	result := run.Execute(queries)
	result.Report(os.Stdout)

	if result.Tally.Incorrect > 0 {
		return fmt.Errorf("%d of %d lookups returned a wrong position", result.Tally.Incorrect, result.Queries)
	}
	return nil
}

// runChurn executes the dynamic workload against the built-in ordered map.
func runChurn(cfg *config.Config) error {
	d := &churn.Driver{
		Index:     ordered.New(),
		Samples:   cfg.Churn.Samples,
		Negatives: cfg.Churn.Negatives,
		Seed:      cfg.Churn.Seed,
		Strict:    cfg.Churn.Strict,
	}
	if cfg.Bench.Verbose {
		d.Logf = log.Printf
	}

	report, err := d.Run()
	if err != nil {
		return err
	}
	report.Write(os.Stdout)

	if !report.Clean() {
		return fmt.Errorf("churn run observed contract violations")
	}
	return nil
}

// runRegister uploads a dataset file to object storage and records it in
// the catalog under the given name.
func runRegister(ctx context.Context, cfg *config.Config) error {
	if cfg.Dataset.Name == "" || cfg.Dataset.Path == "" {
		return fmt.Errorf("register needs both --dataset and --dataset-path")
	}

	count, err := dataset.ReadHeader(cfg.Dataset.Path)
	if err != nil {
		return err
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	objectPath := "datasets/" + cfg.Dataset.Name + path.Ext(cfg.Dataset.Path)
	if path.Ext(cfg.Dataset.Path) == dataset.CompressedSuffix {
		objectPath = "datasets/" + cfg.Dataset.Name + ".bin" + dataset.CompressedSuffix
	}

	log.Printf("Uploading %s (%d keys) to %s", cfg.Dataset.Path, count, objectPath)
	if err := store.Upload(ctx, cfg.Dataset.Path, objectPath); err != nil {
		return err
	}

	catalog, err := dataset.OpenCatalog(cfg.CatalogPath())
	if err != nil {
		return err
	}
	defer catalog.Close()

	rec := dataset.Record{
		Name:         cfg.Dataset.Name,
		ObjectPath:   objectPath,
		ElementCount: int64(count),
		ElementWidth: 8,
		RegisteredAt: time.Now().UTC(),
	}
	if err := catalog.Register(ctx, rec); err != nil {
		return err
	}

	log.Printf("Registered dataset %q (%d keys)", cfg.Dataset.Name, count)
	return nil
}

// datasetLabel picks the report label: the catalog name when known,
// otherwise the file basename.
func datasetLabel(cfg *config.Config, localPath string) string {
	if cfg.Dataset.Name != "" {
		return cfg.Dataset.Name
	}
	return path.Base(localPath)
}
