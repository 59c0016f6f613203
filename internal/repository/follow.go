package repository

import (
	"context"

	"srefhub/internal/cache"
	"srefhub/internal/models"
	"srefhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository toggles the follower -> following relation and keeps
// both users' counters in step with it.
type FollowRepository interface {
	Toggle(ctx context.Context, followerID, followingID uint) (bool, int64, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository returns a new FollowRepository implementation.
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

// Toggle returns the new state and the target's follower count.
func (r *followRepository) Toggle(ctx context.Context, followerID, followingID uint) (bool, int64, error) {
	var following bool
	var followers int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		delta := 0
		del := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			delta = -1
		} else {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Follow{FollowerID: followerID, FollowingID: followingID})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 1 {
				delta = 1
			}
			following = true
		}

		if delta != 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", followingID).
				UpdateColumn("followers_count", gorm.Expr("followers_count + ?", delta)).Error; err != nil {
				return err
			}
			if err := tx.Model(&models.User{}).Where("id = ?", followerID).
				UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.User{}).Select("followers_count").Where("id = ?", followingID).Scan(&followers).Error
	})
	if err != nil {
		return false, 0, models.NewInternalError(err)
	}

	cache.InvalidateUser(ctx, followerID, followingID)
	observability.RecordToggle("follow", following)
	return following, followers, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}
