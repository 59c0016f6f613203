package repository

import (
	"context"

	"srefhub/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByStyle(ctx context.Context, styleID uint) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListByStyle returns comments oldest first with their authors.
func (r *commentRepository) ListByStyle(ctx context.Context, styleID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := readDB(r.db).WithContext(ctx).
		Preload("User").
		Where("style_id = ?", styleID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, c := range comments {
		c.Author = c.User.Summary()
	}
	return comments, nil
}
