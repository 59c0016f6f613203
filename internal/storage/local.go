package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes objects below a root directory. The server exposes the
// directory under its public base URL.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	if baseURL == "" {
		baseURL = "/media"
	}
	return &LocalStore{root: root, baseURL: baseURL}, nil
}

// Root is the directory served as static media.
func (s *LocalStore) Root() string { return s.root }

// Put writes through a temp file and renames it into place.
func (s *LocalStore) Put(_ context.Context, key string, r io.Reader, size int64, _ string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	dest := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if size >= 0 && written != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, written)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("failed to move object into place: %w", err)
	}

	success = true
	return s.URL(key), nil
}

// Delete removes key. Missing keys are not an error.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.root, filepath.FromSlash(key))); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// URL returns the public URL for key.
func (s *LocalStore) URL(key string) string {
	return joinURL(s.baseURL, key)
}

var _ ObjectStore = (*LocalStore)(nil)
