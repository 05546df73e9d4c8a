package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path"
	"sort"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/veridex/veridex/internal/storage"
)

// PrefixedStorage wraps an ObjectStorage and prepends a prefix to all object paths.
type PrefixedStorage struct {
	inner  storage.ObjectStorage
	prefix string
}

func (s *PrefixedStorage) Upload(ctx context.Context, localPath, objectPath string) error {
	return s.inner.Upload(ctx, localPath, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) Download(ctx context.Context, objectPath, localPath string) error {
	return s.inner.Download(ctx, s.prefix+"/"+objectPath, localPath)
}

func (s *PrefixedStorage) Delete(ctx context.Context, objectPath string) error {
	return s.inner.Delete(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) Exists(ctx context.Context, objectPath string) (bool, error) {
	return s.inner.Exists(ctx, s.prefix+"/"+objectPath)
}

func (s *PrefixedStorage) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := s.prefix + "/" + prefix
	objects, err := s.inner.ListObjects(ctx, fullPrefix)
	if err != nil {
		return nil, err
	}

	stripped := make([]string, len(objects))
	for i, obj := range objects {
		if len(obj) > len(s.prefix)+1 {
			stripped[i] = obj[len(s.prefix)+1:]
		} else {
			stripped[i] = obj
		}
	}
	return stripped, nil
}

// getBenchmarkStorage returns a storage interface scoped to this run.
// It respects VERIDEX_STORAGE_TYPE=s3 from .env or environment.
// For S3: objects go under "bench/<benchName>/<timestamp>".
// For local: a temp dir that the cleanup function removes.
func getBenchmarkStorage(b *testing.B, benchName string) (storage.ObjectStorage, func()) {
	// Try loading .env from project root (../../.env relative to test/benchmark)
	_ = godotenv.Load("../../.env")

	if os.Getenv("VERIDEX_STORAGE_TYPE") == "s3" {
		if v := os.Getenv("VERIDEX_AWS_ACCESS_KEY_ID"); v != "" {
			os.Setenv("AWS_ACCESS_KEY_ID", v)
		}
		if v := os.Getenv("VERIDEX_AWS_SECRET_ACCESS_KEY"); v != "" {
			os.Setenv("AWS_SECRET_ACCESS_KEY", v)
		}

		bucket := os.Getenv("VERIDEX_S3_BUCKET")
		if bucket == "" {
			b.Fatal("VERIDEX_S3_BUCKET is required for s3 benchmark")
		}

		cfg := storage.S3Config{
			Region:   os.Getenv("VERIDEX_S3_REGION"),
			Endpoint: os.Getenv("VERIDEX_S3_ENDPOINT"),
		}
		cfg.UsePathStyle = cfg.Endpoint != ""

		st, err := storage.NewS3Storage(context.Background(), bucket, cfg)
		if err != nil {
			b.Fatalf("Failed to initialize S3 storage: %v", err)
		}

		prefix := fmt.Sprintf("bench/%s/%d", benchName, time.Now().UnixNano())
		b.Logf("Running benchmark against S3 bucket: %s prefix: %s", bucket, prefix)

		// Cleanup is manual for S3 to keep uploaded datasets around when debugging
		return &PrefixedStorage{inner: st, prefix: prefix}, func() {}
	}

	dir, err := os.MkdirTemp("", "veridex-bench-"+benchName+"-*")
	if err != nil {
		b.Fatal(err)
	}
	storageDir := path.Join(dir, "storage")
	os.MkdirAll(storageDir, 0755)

	st, err := storage.NewLocalStorage(storageDir)
	if err != nil {
		b.Fatal(err)
	}

	return st, func() { os.RemoveAll(dir) }
}

// syntheticDataset builds a sorted dataset with a mildly skewed key
// distribution so interpolation error is non-trivial.
func syntheticDataset(n int, seed int64) []uint64 {
	rng := rand.New(rand.NewSource(seed))
	data := make([]uint64, n)
	for i := range data {
		v := rng.Uint64() % (1 << 40)
		if i%4 == 0 {
			v %= 1 << 20 // cluster a quarter of the keys low
		}
		data[i] = v
	}
	sort.Slice(data, func(i, j int) bool { return data[i] < data[j] })
	return data
}
