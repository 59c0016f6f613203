package service

import (
	"context"
	"log/slog"

	"srefhub/internal/markdown"
	"srefhub/internal/models"
	"srefhub/internal/notifications"
	"srefhub/internal/promptparse"
	"srefhub/internal/repository"
	"srefhub/internal/slug"
	"srefhub/internal/validation"
)

const maxSlugAttempts = 5

type StyleService struct {
	styleRepo repository.StyleRepository
	renderer  *markdown.Renderer
	notifier  notifications.Publisher
}

type CreateStyleInput struct {
	UserID         uint
	Title          string
	Sref           string
	Images         []string
	MainImageIndex int
	Description    string
	Tags           []string
	Prompt         string
	Params         *models.MidjourneyParams
}

type ListStylesInput struct {
	ViewerID uint
	Search   string
	Tag      string
	UserID   uint
	SortBy   string
	Limit    int
	Offset   int
}

// StylePage is one page of a style listing.
type StylePage struct {
	Styles []*models.Style `json:"styles"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
	Total  int64           `json:"total"`
}

type LikeResult struct {
	IsLiked    bool  `json:"isLiked"`
	LikesCount int64 `json:"likesCount"`
}

func NewStyleService(styleRepo repository.StyleRepository, renderer *markdown.Renderer, notifier notifications.Publisher) *StyleService {
	return &StyleService{styleRepo: styleRepo, renderer: renderer, notifier: notifier}
}

func (s *StyleService) CreateStyle(ctx context.Context, in CreateStyleInput) (*models.Style, error) {
	if err := validation.ValidateTitle(in.Title); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateSref(in.Sref); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateImages(in.Images, in.MainImageIndex); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateDescription(in.Description); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	tags, err := validation.NormalizeTags(in.Tags)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Prompt != "" {
		if err := validation.ValidatePrompt(in.Prompt); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
	}

	params := resolveParams(in.Params, in.Prompt)
	if err := params.Validate(); err != nil {
		return nil, err
	}

	style := &models.Style{
		Title:          trimmed(in.Title),
		Sref:           trimmed(in.Sref),
		Images:         in.Images,
		MainImageIndex: in.MainImageIndex,
		Params:         params,
		Prompt:         in.Prompt,
		Description:    trimmed(in.Description),
		Tags:           tags,
		UserID:         in.UserID,
	}

	for attempt := 1; ; attempt++ {
		style.Slug, err = slug.New(style.Title)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		err = s.styleRepo.Create(ctx, style)
		if err == nil {
			break
		}
		if !isDuplicate(err) {
			return nil, err
		}
		if attempt == maxSlugAttempts {
			return nil, models.NewInternalError(err)
		}
		slog.Default().WarnContext(ctx, "slug collision, retrying", slog.String("slug", style.Slug), slog.Int("attempt", attempt))
	}

	created, err := s.styleRepo.GetByID(ctx, style.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	s.render(ctx, created)
	return created, nil
}

// resolveParams falls back to parsing the prompt when no structured params
// were supplied. Raw always mirrors the prompt.
func resolveParams(supplied *models.MidjourneyParams, prompt string) models.MidjourneyParams {
	var params models.MidjourneyParams
	if supplied != nil {
		params = *supplied
	}
	if params.IsEmpty() && prompt != "" {
		params = promptparse.Fallback(prompt)
	}
	params.Raw = prompt
	return params
}

func (s *StyleService) ListStyles(ctx context.Context, in ListStylesInput) (*StylePage, error) {
	filter := repository.StyleFilter{
		Search: trimmed(in.Search),
		Tag:    trimmed(in.Tag),
		UserID: in.UserID,
		Sort:   repository.ParseStyleSort(in.SortBy),
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	styles, total, err := s.styleRepo.List(ctx, filter, in.ViewerID)
	if err != nil {
		return nil, err
	}
	if styles == nil {
		styles = []*models.Style{}
	}
	return &StylePage{Styles: styles, Limit: clampPage(in.Limit, 50, 100), Offset: filter.Offset, Total: total}, nil
}

// GetBySlug returns the style and counts the view.
func (s *StyleService) GetBySlug(ctx context.Context, slugValue string, viewerID uint) (*models.Style, error) {
	style, err := s.styleRepo.GetBySlug(ctx, slugValue, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.styleRepo.IncrementViews(ctx, style.ID); err != nil {
		return nil, err
	}
	style.Views++
	s.render(ctx, style)
	return style, nil
}

func (s *StyleService) GetByID(ctx context.Context, id, viewerID uint) (*models.Style, error) {
	style, err := s.styleRepo.GetByID(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	s.render(ctx, style)
	return style, nil
}

// ToggleLike flips the caller's like and notifies the owner on a new like.
func (s *StyleService) ToggleLike(ctx context.Context, userID, styleID uint) (*LikeResult, error) {
	style, err := s.styleRepo.GetByID(ctx, styleID, 0)
	if err != nil {
		return nil, err
	}
	liked, count, err := s.styleRepo.ToggleLike(ctx, userID, styleID)
	if err != nil {
		return nil, err
	}
	if liked {
		notify(ctx, s.notifier, style.UserID, notifications.Event{
			Type:    notifications.EventStyleLiked,
			ActorID: userID,
			StyleID: styleID,
		})
	}
	return &LikeResult{IsLiked: liked, LikesCount: count}, nil
}

// TopStyles ranks styles by "views" or "likes".
func (s *StyleService) TopStyles(ctx context.Context, by string, limit int) ([]models.StyleRank, error) {
	sort := repository.ParseStyleSort(by)
	if sort != repository.SortLikes {
		sort = repository.SortViews
	}
	styles, err := s.styleRepo.Top(ctx, sort, limit)
	if err != nil {
		return nil, err
	}
	ranks := make([]models.StyleRank, len(styles))
	for i, style := range styles {
		ranks[i] = models.StyleRank{Rank: i + 1, Style: style}
	}
	return ranks, nil
}

func (s *StyleService) render(ctx context.Context, style *models.Style) {
	if s.renderer == nil || style.Description == "" {
		return
	}
	html, err := s.renderer.Render(style.Description)
	if err != nil {
		slog.Default().WarnContext(ctx, "description render failed", slog.Uint64("style_id", uint64(style.ID)), slog.String("error", err.Error()))
		return
	}
	style.DescriptionHTML = html
}

func clampPage(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
