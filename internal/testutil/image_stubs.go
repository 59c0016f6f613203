// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"time"

	"srefhub/internal/models"

	"gorm.io/gorm"
)

// ImageRepoStub is an in-memory image repository for tests.
type ImageRepoStub struct {
	mu     sync.Mutex
	items  map[string]*models.Image
	nextID uint
}

// NewImageRepoStub creates an empty stub.
func NewImageRepoStub() *ImageRepoStub {
	return &ImageRepoStub{items: make(map[string]*models.Image), nextID: 1}
}

func stubKey(userID uint, hash string) string {
	return fmt.Sprintf("%d/%s", userID, hash)
}

// Create stores image metadata in memory.
func (s *ImageRepoStub) Create(_ context.Context, img *models.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := stubKey(img.UserID, img.Hash)
	if _, exists := s.items[key]; exists {
		return gorm.ErrDuplicatedKey
	}
	if img.ID == 0 {
		img.ID = s.nextID
		s.nextID++
	}
	img.CreatedAt = time.Now().UTC()
	s.items[key] = img
	return nil
}

// GetByUserHash fetches an image by owner and content hash.
func (s *ImageRepoStub) GetByUserHash(_ context.Context, userID uint, hash string) (*models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[stubKey(userID, hash)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

// ListByUser returns the user's images in no particular order.
func (s *ImageRepoStub) ListByUser(_ context.Context, userID uint, _, _ int) ([]models.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Image
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, *item)
		}
	}
	return out, nil
}

// Len reports how many images are stored.
func (s *ImageRepoStub) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

type fataler interface {
	Helper()
	Fatalf(string, ...any)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t fataler, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
