package repository

import (
	"context"
	"errors"

	"srefhub/internal/models"

	"gorm.io/gorm"
)

// ImageRepository defines storage operations for uploaded image metadata.
type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByUserHash(ctx context.Context, userID uint, hash string) (*models.Image, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Image, error)
}

type imageRepository struct {
	db *gorm.DB
}

// NewImageRepository returns a repository implementation for image metadata.
func NewImageRepository(db *gorm.DB) ImageRepository {
	return &imageRepository{db: db}
}

// Create returns ErrDuplicate when the user already uploaded the same bytes.
func (r *imageRepository) Create(ctx context.Context, image *models.Image) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetByUserHash returns gorm.ErrRecordNotFound when there is no match.
func (r *imageRepository) GetByUserHash(ctx context.Context, userID uint, hash string) (*models.Image, error) {
	var image models.Image
	err := r.db.WithContext(ctx).Where("user_id = ? AND hash = ?", userID, hash).First(&image).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, models.NewInternalError(err)
	}
	return &image, nil
}

func (r *imageRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Image, error) {
	var images []models.Image
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, 50, 100)).
		Offset(offset).
		Find(&images).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}
