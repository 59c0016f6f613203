package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"testing"

	"srefhub/internal/models"
	"srefhub/internal/storage"
	"srefhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tierLimits(tier string) int64 {
	if tier == string(models.TierPremium) {
		return 50 * 1024 * 1024
	}
	return 1024 * 1024
}

func TestImageServiceUploadAndDedupe(t *testing.T) {
	repo := testutil.NewImageRepoStub()
	store := storage.NewMemoryStore()
	svc := NewImageService(repo, store, tierLimits)

	content := testutil.TinyPNG(t, 1200, 800)
	img, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:      42,
		Filename:    "style.png",
		ContentType: "image/png",
		Content:     content,
	})
	require.NoError(t, err)
	assert.NotZero(t, img.ID)
	assert.Len(t, img.Hash, 64)
	assert.Equal(t, "style", img.Kind)
	assert.Equal(t, "image/jpeg", img.ContentType)
	assert.Equal(t, 1200, img.Width)
	assert.Equal(t, 800, img.Height)
	assert.Equal(t, "/media/"+img.MasterKey, img.URL)
	assert.Equal(t, 2, store.Len())

	_, ct, err := store.Get(img.WebPKey)
	require.NoError(t, err)
	assert.Equal(t, "image/webp", ct)

	again, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:      42,
		Filename:    "style-copy.png",
		ContentType: "image/png",
		Content:     content,
	})
	require.NoError(t, err)
	assert.Equal(t, img.ID, again.ID)
	assert.Equal(t, 1, repo.Len())

	other, err := svc.Upload(context.Background(), UploadImageInput{UserID: 43, Content: content})
	require.NoError(t, err)
	assert.NotEqual(t, img.ID, other.ID)
	assert.Equal(t, img.Hash, other.Hash)
	assert.Equal(t, 2, repo.Len())
}

func TestImageServiceNormalizesLargeUploads(t *testing.T) {
	svc := NewImageService(testutil.NewImageRepoStub(), storage.NewMemoryStore(), tierLimits)

	content := noisyPNG(t, 3000, 1500)
	img, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:  9,
		Tier:    models.TierPremium,
		Content: content,
	})
	require.NoError(t, err)
	assert.Equal(t, MasterMaxSize, img.Width)
	assert.Equal(t, MasterMaxSize/2, img.Height)
	assert.Less(t, img.SizeBytes, int64(len(content)))
}

func TestImageServiceAvatarIsCroppedSquare(t *testing.T) {
	svc := NewImageService(testutil.NewImageRepoStub(), storage.NewMemoryStore(), tierLimits)

	img, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:  5,
		Kind:    ImageKindAvatar,
		Content: testutil.TinyPNG(t, 900, 600),
	})
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, img.Width)
	assert.Equal(t, AvatarSize, img.Height)
	assert.Equal(t, "avatar", img.Kind)
	assert.Contains(t, img.MasterKey, "avatars/5/")
}

func TestImageServiceKindChangesHash(t *testing.T) {
	svc := NewImageService(testutil.NewImageRepoStub(), storage.NewMemoryStore(), tierLimits)
	content := testutil.TinyPNG(t, 64, 64)

	style, err := svc.Upload(context.Background(), UploadImageInput{UserID: 1, Content: content})
	require.NoError(t, err)
	avatar, err := svc.Upload(context.Background(), UploadImageInput{UserID: 1, Kind: ImageKindAvatar, Content: content})
	require.NoError(t, err)
	assert.NotEqual(t, style.Hash, avatar.Hash)
}

func TestImageServiceRejectsInvalidUploads(t *testing.T) {
	svc := NewImageService(testutil.NewImageRepoStub(), storage.NewMemoryStore(), tierLimits)
	ctx := context.Background()
	pngBytes := testutil.TinyPNG(t, 32, 32)

	tests := []struct {
		name string
		in   UploadImageInput
	}{
		{"no user", UploadImageInput{Content: pngBytes}},
		{"empty", UploadImageInput{UserID: 1}},
		{"not an image", UploadImageInput{UserID: 1, Content: []byte("%PDF-1.4 definitely not an image")}},
		{"truncated png", UploadImageInput{UserID: 1, Content: pngBytes[:40]}},
		{"declared type mismatch", UploadImageInput{UserID: 1, ContentType: "image/gif", Content: pngBytes}},
		{"over free limit", UploadImageInput{UserID: 1, Content: append(append([]byte{}, pngBytes...), make([]byte, 1024*1024)...)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestImageServiceTierLimit(t *testing.T) {
	svc := NewImageService(testutil.NewImageRepoStub(), storage.NewMemoryStore(), tierLimits)

	big := noisyPNG(t, 800, 800)
	require.Greater(t, len(big), 1024*1024, "fixture must exceed the free limit")

	_, err := svc.Upload(context.Background(), UploadImageInput{UserID: 3, Tier: models.TierFree, Content: big})
	assertValidationError(t, err)
	assert.Contains(t, err.Error(), "max 1MB")

	_, err = svc.Upload(context.Background(), UploadImageInput{UserID: 3, Tier: models.TierPremium, Content: big})
	assert.NoError(t, err)
}

func TestImageServiceListMine(t *testing.T) {
	repo := testutil.NewImageRepoStub()
	svc := NewImageService(repo, storage.NewMemoryStore(), tierLimits)

	images, err := svc.ListMine(context.Background(), 77, 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)

	_, err = svc.Upload(context.Background(), UploadImageInput{UserID: 77, Content: testutil.TinyPNG(t, 16, 16)})
	require.NoError(t, err)
	images, err = svc.ListMine(context.Background(), 77, 10, 0)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	buf := bytes.NewBuffer(nil)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}
