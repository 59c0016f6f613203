// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"

	"srefhub/internal/cache"
	"srefhub/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetProfile(ctx context.Context, id, viewerID uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) error
	SetTier(ctx context.Context, id uint, tier models.SubscriptionTier) error
	ListFollowers(ctx context.Context, id uint, limit, offset int) ([]models.User, error)
	ListFollowing(ctx context.Context, id uint, limit, offset int) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// GetByID returns the stored row through the user cache. Computed fields
// are left empty.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return cache.Aside(ctx, cache.UserKey(id), cache.UserTTL, func() (*models.User, error) {
		var user models.User
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("User", id)
			}
			return nil, models.NewInternalError(err)
		}
		return &user, nil
	})
}

// GetProfile loads a user with stylesCount and, for a signed-in viewer,
// isFollowing.
func (r *userRepository) GetProfile(ctx context.Context, id, viewerID uint) (*models.User, error) {
	var user models.User
	if err := applyUserDetails(readDB(r.db).WithContext(ctx), viewerID).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetTier(ctx context.Context, id uint, tier models.SubscriptionTier) error {
	return r.UpdateProfile(ctx, id, map[string]interface{}{"subscription_tier": tier})
}

func (r *userRepository) ListFollowers(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return r.listByFollow(ctx, "follows.follower_id", "follows.following_id = ?", id, limit, offset)
}

func (r *userRepository) ListFollowing(ctx context.Context, id uint, limit, offset int) ([]models.User, error) {
	return r.listByFollow(ctx, "follows.following_id", "follows.follower_id = ?", id, limit, offset)
}

func (r *userRepository) listByFollow(ctx context.Context, joinCol, where string, id uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(where, id).
		Order("follows.created_at DESC, follows.id DESC").
		Limit(clampLimit(limit, 50, 100)).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

// applyUserDetails adds the computed profile columns in a single query.
func applyUserDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "users.*, (SELECT COUNT(*) FROM styles WHERE styles.user_id = users.id) AS styles_count"
	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM follows WHERE follows.following_id = users.id AND follows.follower_id = ?) AS is_following", viewerID)
	}
	return db.Select(selectQuery + ", false AS is_following")
}
