package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strings"

	"srefhub/internal/models"
	"srefhub/internal/repository"
	"srefhub/internal/storage"

	"gorm.io/gorm"
)

const (
	MasterMaxSize  = 2048
	AvatarSize     = 512
	JPEGQuality    = 82
	WebPQuality    = 70
	MaxUploadFiles = 4

	defaultUploadLimit = 5 << 20
)

// ImageKind selects the normalisation applied to an upload.
type ImageKind string

const (
	ImageKindStyle  ImageKind = "style"
	ImageKindAvatar ImageKind = "avatar"
)

func (k ImageKind) shape(img image.Image) image.Image {
	if k == ImageKindAvatar {
		return fitWithin(squareCrop(img), AvatarSize)
	}
	return fitWithin(img, MasterMaxSize)
}

type UploadImageInput struct {
	UserID      uint
	Tier        models.SubscriptionTier
	Kind        ImageKind
	Filename    string
	ContentType string
	Content     []byte
}

type ImageService struct {
	repo       repository.ImageRepository
	store      storage.ObjectStore
	limitBytes func(tier string) int64
}

// NewImageService wires uploads to store. limitBytes returns the per-file
// byte limit for a subscription tier.
func NewImageService(repo repository.ImageRepository, store storage.ObjectStore, limitBytes func(tier string) int64) *ImageService {
	return &ImageService{repo: repo, store: store, limitBytes: limitBytes}
}

// Upload validates, normalises and stores one image. Uploading the same
// bytes twice returns the existing record.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	if in.Kind == "" {
		in.Kind = ImageKindStyle
	}
	src, err := s.inspect(in)
	if err != nil {
		return nil, err
	}

	hash := contentHash(in.Kind, in.Content)
	existing, err := s.repo.GetByUserHash(ctx, in.UserID, hash)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	master := in.Kind.shape(src)
	outputs, err := encodeRenditions(master)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	prefix := fmt.Sprintf("%ss/%d/%s/", in.Kind, in.UserID, hash)
	keys := make([]string, 0, len(outputs))
	urls := make([]string, 0, len(outputs))
	for _, out := range outputs {
		key := prefix + out.suffix
		url, err := s.store.Put(ctx, key, bytes.NewReader(out.data), int64(len(out.data)), out.contentType)
		if err != nil {
			s.cleanup(ctx, keys...)
			return nil, models.NewInternalError(err)
		}
		keys = append(keys, key)
		urls = append(urls, url)
	}

	record := &models.Image{
		UserID:      in.UserID,
		Hash:        hash,
		Kind:        string(in.Kind),
		MasterKey:   keys[0],
		WebPKey:     keys[1],
		URL:         urls[0],
		WebPURL:     urls[1],
		Width:       master.Bounds().Dx(),
		Height:      master.Bounds().Dy(),
		SizeBytes:   int64(len(outputs[0].data)),
		ContentType: outputs[0].contentType,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		if isDuplicate(err) {
			// A concurrent upload of the same bytes won; its objects share our keys.
			return s.repo.GetByUserHash(ctx, in.UserID, hash)
		}
		s.cleanup(ctx, keys...)
		return nil, err
	}
	return record, nil
}

// inspect enforces size, sniffed type, decodability and the declared
// content type, in that order.
func (s *ImageService) inspect(in UploadImageInput) (image.Image, error) {
	switch {
	case in.UserID == 0:
		return nil, models.NewValidationError("Invalid user")
	case len(in.Content) == 0:
		return nil, models.NewValidationError("No file uploaded")
	}
	if limit := s.limitFor(in.Tier); int64(len(in.Content)) > limit {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", limit>>20))
	}
	if !allowedMIME(http.DetectContentType(in.Content)) {
		return nil, models.NewValidationError("Invalid image type")
	}

	img, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	actual, ok := decodedMIME[format]
	if !ok {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if declared := mediaType(in.ContentType); strings.HasPrefix(declared, "image/") && declared != actual {
		return nil, models.NewValidationError("Image content type mismatch")
	}
	return img, nil
}

// ListMine returns the caller's uploads, newest first.
func (s *ImageService) ListMine(ctx context.Context, userID uint, limit, offset int) ([]models.Image, error) {
	images, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []models.Image{}
	}
	return images, nil
}

func (s *ImageService) limitFor(tier models.SubscriptionTier) int64 {
	if s.limitBytes == nil {
		return defaultUploadLimit
	}
	return s.limitBytes(string(tier))
}

func (s *ImageService) cleanup(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			slog.Default().WarnContext(ctx, "failed to remove orphaned upload", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
}

// contentHash keys uploads by kind and source bytes. The owner is part of
// the unique index, not the hash.
func contentHash(kind ImageKind, content []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{':'})
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
