// Package storage provides object storage for dataset blobs. Datasets
// are large (hundreds of millions of packed integers), live in a bucket
// or a local directory, and are fetched once at the start of a run.
package storage

import (
	"context"
	"errors"
)

// Common errors for storage operations.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrUploadFailed   = errors.New("upload failed")
	ErrDownloadFailed = errors.New("download failed")
)

// ObjectStorage abstracts the backends dataset blobs are served from.
// Implementations include S3-compatible stores and the local filesystem.
type ObjectStorage interface {
	// Upload copies a local file to objectPath in storage.
	Upload(ctx context.Context, localPath, objectPath string) error

	// Download copies the object at objectPath to localPath, creating
	// parent directories as needed.
	Download(ctx context.Context, objectPath, localPath string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, objectPath string) (bool, error)

	// ListObjects returns the object paths under prefix.
	ListObjects(ctx context.Context, prefix string) ([]string, error)

	// Delete removes an object. Deleting an absent object is not an
	// error.
	Delete(ctx context.Context, objectPath string) error
}
