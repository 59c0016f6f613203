package repository

import (
	"context"

	"srefhub/internal/cache"
	"srefhub/internal/models"

	"gorm.io/gorm"
)

// ContributorSort orders the contributor leaderboard.
type ContributorSort string

const (
	ByStyles ContributorSort = "styles"
	ByLikes  ContributorSort = "likes"
)

// LeaderboardRepository aggregates per-user totals on read.
type LeaderboardRepository interface {
	Contributors(ctx context.Context, sort ContributorSort, limit int) ([]models.LeaderboardEntry, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

// NewLeaderboardRepository returns a new LeaderboardRepository implementation.
func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

type contributorRow struct {
	ID          uint
	Name        string
	Avatar      string
	StylesCount int64
	TotalLikes  int64
	TotalViews  int64
}

// Contributors ranks users. Ties break on the other metric, then user id.
func (r *leaderboardRepository) Contributors(ctx context.Context, sort ContributorSort, limit int) ([]models.LeaderboardEntry, error) {
	limit = clampLimit(limit, 10, 100)
	return cache.Aside(ctx, cache.ContributorsKey(string(sort), limit), cache.LeaderboardTTL, func() ([]models.LeaderboardEntry, error) {
		return r.contributors(ctx, sort, limit)
	})
}

func (r *leaderboardRepository) contributors(ctx context.Context, sort ContributorSort, limit int) ([]models.LeaderboardEntry, error) {
	order := "styles_count DESC, total_likes DESC, users.id ASC"
	if sort == ByLikes {
		order = "total_likes DESC, styles_count DESC, users.id ASC"
	}

	var rows []contributorRow
	err := readDB(r.db).WithContext(ctx).
		Table("users").
		Select("users.id, users.name, users.avatar, " +
			"COUNT(styles.id) AS styles_count, " +
			"COALESCE(SUM(styles.likes_count), 0) AS total_likes, " +
			"COALESCE(SUM(styles.views), 0) AS total_views").
		Joins("LEFT JOIN styles ON styles.user_id = users.id").
		Group("users.id, users.name, users.avatar").
		Order(order).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	entries := make([]models.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = models.LeaderboardEntry{
			Rank:        i + 1,
			User:        &models.UserSummary{ID: row.ID, Name: row.Name, Avatar: row.Avatar},
			StylesCount: row.StylesCount,
			TotalLikes:  row.TotalLikes,
			TotalViews:  row.TotalViews,
		}
	}
	return entries, nil
}

