package repository

import (
	"context"
	"errors"
	"strings"

	"srefhub/internal/cache"
	"srefhub/internal/models"
	"srefhub/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StyleSort orders style listings.
type StyleSort string

const (
	SortNewest StyleSort = "newest"
	SortViews  StyleSort = "views"
	SortLikes  StyleSort = "likes"
	SortAZ     StyleSort = "az"
)

// ParseStyleSort accepts the public sortBy values and their aliases.
// Unknown values sort newest first.
func ParseStyleSort(s string) StyleSort {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "views", "most-viewed", "most_viewed":
		return SortViews
	case "likes", "most-liked", "most_liked":
		return SortLikes
	case "az", "a-z", "alphabetical", "title":
		return SortAZ
	default:
		return SortNewest
	}
}

// StyleFilter narrows a style listing.
type StyleFilter struct {
	Search string
	Tag    string
	UserID uint
	Sort   StyleSort
	Limit  int
	Offset int
}

// StyleRepository defines persistence operations for styles and likes.
type StyleRepository interface {
	Create(ctx context.Context, style *models.Style) error
	GetByID(ctx context.Context, id, viewerID uint) (*models.Style, error)
	GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Style, error)
	Exists(ctx context.Context, id uint) (bool, error)
	List(ctx context.Context, filter StyleFilter, viewerID uint) ([]*models.Style, int64, error)
	Top(ctx context.Context, sort StyleSort, limit int) ([]*models.Style, error)
	IncrementViews(ctx context.Context, id uint) error
	ToggleLike(ctx context.Context, userID, styleID uint) (bool, int64, error)
}

type styleRepository struct {
	db *gorm.DB
}

// NewStyleRepository returns a new StyleRepository implementation.
func NewStyleRepository(db *gorm.DB) StyleRepository {
	return &styleRepository{db: db}
}

// Create inserts style. A slug collision yields ErrDuplicate so the caller
// can retry with a fresh suffix.
func (r *styleRepository) Create(ctx context.Context, style *models.Style) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(style).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, style.UserID)
	return nil
}

func (r *styleRepository) GetByID(ctx context.Context, id, viewerID uint) (*models.Style, error) {
	return r.getOne(ctx, viewerID, id, "styles.id = ?", id)
}

func (r *styleRepository) GetBySlug(ctx context.Context, slug string, viewerID uint) (*models.Style, error) {
	return r.getOne(ctx, viewerID, slug, "styles.slug = ?", slug)
}

func (r *styleRepository) getOne(ctx context.Context, viewerID uint, ref interface{}, where string, arg interface{}) (*models.Style, error) {
	var style models.Style
	err := applyStyleDetails(readDB(r.db).WithContext(ctx), viewerID).
		Preload("User").
		Where(where, arg).
		First(&style).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Style", ref)
		}
		return nil, models.NewInternalError(err)
	}
	attachAuthors([]*models.Style{&style})
	return &style, nil
}

func (r *styleRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Style{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// List returns one page of styles and the total number of matches.
func (r *styleRepository) List(ctx context.Context, filter StyleFilter, viewerID uint) ([]*models.Style, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := applyStyleFilter(db.Model(&models.Style{}), filter).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var styles []*models.Style
	query := applyStyleFilter(applyStyleDetails(db, viewerID).Preload("User"), filter)
	err := applyStyleSort(query, filter.Sort).
		Limit(clampLimit(filter.Limit, 50, 100)).
		Offset(filter.Offset).
		Find(&styles).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	attachAuthors(styles)
	return styles, total, nil
}

// Top ranks styles by views or likes.
func (r *styleRepository) Top(ctx context.Context, sort StyleSort, limit int) ([]*models.Style, error) {
	if sort != SortLikes {
		sort = SortViews
	}
	var styles []*models.Style
	err := applyStyleSort(applyStyleDetails(readDB(r.db).WithContext(ctx), 0).Preload("User"), sort).
		Limit(clampLimit(limit, 10, 100)).
		Find(&styles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	attachAuthors(styles)
	return styles, nil
}

// IncrementViews bumps the counter atomically in SQL.
func (r *styleRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Style{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Style", id)
	}
	return nil
}

// ToggleLike flips the like and adjusts the denormalised counter in one
// transaction. The counter only moves when a row was actually inserted or
// deleted, so concurrent toggles cannot drift it.
func (r *styleRepository) ToggleLike(ctx context.Context, userID, styleID uint) (bool, int64, error) {
	var liked bool
	var likes int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var style models.Style
		if err := tx.Select("id").First(&style, styleID).Error; err != nil {
			return err
		}

		del := tx.Where("user_id = ? AND style_id = ?", userID, styleID).Delete(&models.Like{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected > 0 {
			if err := tx.Model(&models.Style{}).Where("id = ?", styleID).
				UpdateColumn("likes_count", gorm.Expr("likes_count - ?", del.RowsAffected)).Error; err != nil {
				return err
			}
		} else {
			ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.Like{UserID: userID, StyleID: styleID})
			if ins.Error != nil {
				return ins.Error
			}
			if ins.RowsAffected == 1 {
				if err := tx.Model(&models.Style{}).Where("id = ?", styleID).
					UpdateColumn("likes_count", gorm.Expr("likes_count + ?", 1)).Error; err != nil {
					return err
				}
			}
			liked = true
		}

		return tx.Model(&models.Style{}).Select("likes_count").Where("id = ?", styleID).Scan(&likes).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, models.NewNotFoundError("Style", styleID)
		}
		return false, 0, models.NewInternalError(err)
	}
	observability.RecordToggle("like", liked)
	return liked, likes, nil
}

// applyStyleDetails adds comment count and the viewer's like and collection
// flags as subqueries.
func applyStyleDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "styles.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.style_id = styles.id) AS comments_count"

	if viewerID != 0 {
		return db.Select(selectQuery+
			", EXISTS(SELECT 1 FROM likes WHERE likes.style_id = styles.id AND likes.user_id = ?) AS is_liked"+
			", EXISTS(SELECT 1 FROM collection_styles JOIN collections ON collections.id = collection_styles.collection_id"+
			" WHERE collection_styles.style_id = styles.id AND collections.user_id = ?) AS is_collected",
			viewerID, viewerID)
	}
	return db.Select(selectQuery + ", false AS is_liked, false AS is_collected")
}

func applyStyleFilter(db *gorm.DB, filter StyleFilter) *gorm.DB {
	if q := strings.ToLower(strings.TrimSpace(filter.Search)); q != "" {
		pattern := containsPattern(q)
		db = db.Where(`(LOWER(styles.title) LIKE ? ESCAPE '\' OR styles.sref LIKE ? ESCAPE '\' OR LOWER(styles.tags) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		db = db.Where(`styles.tags LIKE ? ESCAPE '\'`, containsPattern(`"`+tag+`"`))
	}
	if filter.UserID != 0 {
		db = db.Where("styles.user_id = ?", filter.UserID)
	}
	return db
}

func applyStyleSort(db *gorm.DB, sort StyleSort) *gorm.DB {
	switch sort {
	case SortViews:
		return db.Order("styles.views DESC, styles.id DESC")
	case SortLikes:
		return db.Order("styles.likes_count DESC, styles.id DESC")
	case SortAZ:
		return db.Order("LOWER(styles.title) ASC, styles.id ASC")
	default:
		return db.Order("styles.created_at DESC, styles.id DESC")
	}
}

func attachAuthors(styles []*models.Style) {
	for _, s := range styles {
		if s.User != nil {
			s.Author = s.User.Summary()
		}
	}
}
