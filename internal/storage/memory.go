package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore keeps objects in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	types   map[string]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

// Put implements ObjectStore.
func (m *MemoryStore) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return "", fmt.Errorf("failed to read object: %w", err)
	}
	if size >= 0 && n != size {
		return "", fmt.Errorf("size mismatch: expected %d bytes, got %d", size, n)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = buf.Bytes()
	m.types[key] = contentType
	return m.URL(key), nil
}

// Delete implements ObjectStore.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

// URL implements ObjectStore.
func (m *MemoryStore) URL(key string) string {
	return "/media/" + key
}

// Get returns a copy of the stored object and its content type.
func (m *MemoryStore) Get(key string) ([]byte, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return append([]byte(nil), data...), m.types[key], nil
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

var _ ObjectStore = (*MemoryStore)(nil)
