// Package config provides unified configuration for the veridex tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veridex/veridex/internal/workload"
)

// Mode represents the tool mode to run.
type Mode string

const (
	ModeBench    Mode = "bench"
	ModeChurn    Mode = "churn"
	ModeRegister Mode = "register"
)

// Config holds the unified configuration for all veridex modes.
type Config struct {
	// Mode specifies which tool to run: bench, churn, register
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for downloads and the catalog
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Dataset selection
	Dataset DatasetConfig `json:"dataset" yaml:"dataset"`

	// Bench run configuration
	Bench BenchConfig `json:"bench" yaml:"bench"`

	// Churn run configuration
	Churn ChurnConfig `json:"churn" yaml:"churn"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`
}

// DatasetConfig selects the dataset a run operates on.
type DatasetConfig struct {
	// Name is the catalog name of the dataset
	Name string `json:"name" yaml:"name"`

	// Path is a direct file path, bypassing the catalog
	Path string `json:"path" yaml:"path"`

	// DownloadDir is the directory for fetched dataset files
	DownloadDir string `json:"download_dir" yaml:"download_dir"`
}

// BenchConfig holds static benchmark configuration.
type BenchConfig struct {
	// Queries is the number of lookups per run
	Queries int `json:"queries" yaml:"queries"`

	// Policy is the query generation policy: sampled, uniform-range
	Policy string `json:"policy" yaml:"policy"`

	// Seed makes the query stream reproducible
	Seed int64 `json:"seed" yaml:"seed"`

	// Branchless selects the branch-free refiner
	Branchless bool `json:"branchless" yaml:"branchless"`

	// Fanout is the bucket count of the built-in reference index
	Fanout int `json:"fanout" yaml:"fanout"`

	// Verbose enables per-mismatch diagnostics
	Verbose bool `json:"verbose" yaml:"verbose"`
}

// ChurnConfig holds dynamic workload configuration.
type ChurnConfig struct {
	// Samples is the number of unique keys to insert
	Samples int `json:"samples" yaml:"samples"`

	// Negatives is the number of never-inserted keys to probe
	Negatives int `json:"negatives" yaml:"negatives"`

	// Seed makes the generated workload reproducible
	Seed int64 `json:"seed" yaml:"seed"`

	// Strict checks lookups against the deletion pattern
	Strict bool `json:"strict" yaml:"strict"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration for local runs.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeBench,
		DataDir: "./data/veridex",
		Bench: BenchConfig{
			Queries:    workload.DefaultSize,
			Policy:     string(workload.PolicySampled),
			Seed:       workload.DefaultSeed,
			Branchless: true,
			Fanout:     1024,
		},
		Churn: ChurnConfig{
			Samples:   1_000_000,
			Negatives: 10_000,
			Seed:      42,
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/veridex"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.DataDir, "storage")
	}
	if c.Dataset.DownloadDir == "" {
		c.Dataset.DownloadDir = filepath.Join(c.DataDir, "downloads")
	}
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.Dataset.DownloadDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// CatalogPath returns the path to the dataset catalog database.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, "catalog.db")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBench, ModeChurn, ModeRegister:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be bench, churn, or register)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("invalid storage type: %s (must be local or s3)", c.Storage.Type)
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when storage type is s3")
	}

	if _, err := workload.ParsePolicy(c.Bench.Policy); err != nil {
		return err
	}

	if c.Bench.Queries <= 0 {
		return fmt.Errorf("bench.queries must be positive, got %d", c.Bench.Queries)
	}

	if c.Churn.Samples <= 0 {
		return fmt.Errorf("churn.samples must be positive, got %d", c.Churn.Samples)
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the VERIDEX_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("VERIDEX_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("VERIDEX_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// Dataset configuration
	if v := os.Getenv("VERIDEX_DATASET_NAME"); v != "" {
		cfg.Dataset.Name = v
	}
	if v := os.Getenv("VERIDEX_DATASET_PATH"); v != "" {
		cfg.Dataset.Path = v
	}

	// Bench configuration
	if v := os.Getenv("VERIDEX_BENCH_QUERIES"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Bench.Queries)
	}
	if v := os.Getenv("VERIDEX_BENCH_POLICY"); v != "" {
		cfg.Bench.Policy = v
	}
	if v := os.Getenv("VERIDEX_BENCH_SEED"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Bench.Seed)
	}
	if v := os.Getenv("VERIDEX_BENCH_BRANCHLESS"); v != "" {
		cfg.Bench.Branchless = v == "true" || v == "1"
	}

	// Churn configuration
	if v := os.Getenv("VERIDEX_CHURN_SAMPLES"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Churn.Samples)
	}
	if v := os.Getenv("VERIDEX_CHURN_NEGATIVES"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Churn.Negatives)
	}
	if v := os.Getenv("VERIDEX_CHURN_STRICT"); v != "" {
		cfg.Churn.Strict = v == "true" || v == "1"
	}

	// Storage configuration
	if v := os.Getenv("VERIDEX_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("VERIDEX_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("VERIDEX_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("VERIDEX_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("VERIDEX_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
}
