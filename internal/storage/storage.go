// Package storage persists uploaded media behind a small object-store
// interface with local-disk, S3 and in-memory backends.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"srefhub/internal/config"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = errors.New("object not found")

// ObjectStore stores immutable objects under slash-separated keys.
type ObjectStore interface {
	// Put writes size bytes from r under key and returns the public URL.
	// Writing an existing key replaces it.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// New selects a backend from configuration.
func New(ctx context.Context, cfg *config.Config) (ObjectStore, error) {
	switch cfg.StorageDriver {
	case "", "local":
		return NewLocalStore(cfg.UploadDir, cfg.PublicMediaURL)
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// CleanKey rejects absolute keys and parent traversal.
func CleanKey(key string) (string, error) {
	cleaned := path.Clean(strings.TrimSpace(key))
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "/") ||
		cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return cleaned, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
