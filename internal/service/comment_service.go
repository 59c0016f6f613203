package service

import (
	"context"
	"fmt"
	"strings"

	"srefhub/internal/models"
	"srefhub/internal/notifications"
	"srefhub/internal/repository"
	"srefhub/internal/validation"
)

type CommentService struct {
	commentRepo repository.CommentRepository
	styleRepo   repository.StyleRepository
	userRepo    repository.UserRepository
	notifier    notifications.Publisher
}

type CreateCommentInput struct {
	UserID  uint
	StyleID uint
	Text    string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	styleRepo repository.StyleRepository,
	userRepo repository.UserRepository,
	notifier notifications.Publisher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		styleRepo:   styleRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	text, err := validation.NormalizeCommentText(in.Text)
	if err != nil {
		if strings.TrimSpace(in.Text) == "" {
			return nil, models.NewValidationError("Comment text is required")
		}
		return nil, models.NewValidationError(fmt.Sprintf("Comment is too long (max %d characters)", validation.CommentMaxLength))
	}

	style, err := s.styleRepo.GetByID(ctx, in.StyleID, 0)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Text:    text,
		UserID:  in.UserID,
		StyleID: in.StyleID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	author, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	comment.Author = author.Summary()

	notify(ctx, s.notifier, style.UserID, notifications.Event{
		Type:    notifications.EventStyleCommented,
		ActorID: in.UserID,
		StyleID: in.StyleID,
	})
	return comment, nil
}

// ListComments returns the style's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, styleID uint) ([]*models.Comment, error) {
	exists, err := s.styleRepo.Exists(ctx, styleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, models.NewNotFoundError("Style", styleID)
	}
	comments, err := s.commentRepo.ListByStyle(ctx, styleID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}
