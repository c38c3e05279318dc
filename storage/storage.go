// Package storage archives generation transcripts as blobs on the local
// filesystem or in S3.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

var (
	// ErrFileNotFound is returned when a requested blob does not exist.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidPath is returned when a key is empty, absolute or escapes the root.
	ErrInvalidPath = errors.New("invalid path")
)

// BlobStorage stores opaque blobs under slash-separated keys.
type BlobStorage interface {
	// Put stores the reader's content at key, replacing any existing blob.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Get opens the blob at key. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether a blob is stored at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the blob at key.
	Delete(ctx context.Context, key string) error
}

// Storage backends accepted by New.
const (
	TypeLocal = "local"
	TypeS3    = "s3"
)

// Config selects and configures a storage backend.
type Config struct {
	Type string

	// BaseDir is the root directory for local storage.
	BaseDir string

	Bucket    string
	Region    string
	Prefix    string
	AccessKey string
	SecretKey string
	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string
}

// New creates the configured BlobStorage.
func New(ctx context.Context, cfg Config) (BlobStorage, error) {
	switch strings.ToLower(cfg.Type) {
	case TypeLocal:
		if cfg.BaseDir == "" {
			return nil, fmt.Errorf("base_dir is required for local storage")
		}
		return NewLocalStorage(cfg.BaseDir)

	case TypeS3:
		s3Storage, err := NewS3Storage(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 storage: %w", err)
		}
		return s3Storage, nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// cleanKey normalizes key to a relative slash path and rejects traversal.
func cleanKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: path cannot be empty", ErrInvalidPath)
	}

	key = strings.ReplaceAll(key, "\\", "/")
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("%w: absolute paths not allowed", ErrInvalidPath)
	}

	cleaned := path.Clean(key)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidPath)
	}
	return cleaned, nil
}
