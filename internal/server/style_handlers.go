package server

import (
	"srefhub/internal/models"
	"srefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createStyleRequest struct {
	Title          string                   `json:"title"`
	Sref           string                   `json:"sref"`
	Images         []string                 `json:"images"`
	MainImageIndex int                      `json:"mainImageIndex"`
	Description    string                   `json:"description"`
	Tags           []string                 `json:"tags"`
	Prompt         string                   `json:"prompt"`
	Params         *models.MidjourneyParams `json:"params"`
}

type paginationMeta struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

type styleListResponse struct {
	Styles     []*models.Style `json:"styles"`
	Pagination paginationMeta  `json:"pagination"`
}

// ListStyles handles GET /api/styles
// @Summary List styles
// @Description Search and page through the catalogue
// @Tags styles
// @Produce json
// @Param search query string false "Title, sref or tag substring"
// @Param tag query string false "Exact tag"
// @Param userId query int false "Author"
// @Param sortBy query string false "newest|views|likes|az"
// @Param limit query int false "Page size (max 100)"
// @Param offset query int false "Offset"
// @Success 200 {object} styleListResponse
// @Router /styles [get]
func (s *Server) ListStyles(c *fiber.Ctx) error {
	page := parsePagination(c, 50)

	result, err := s.styleService.ListStyles(c.UserContext(), service.ListStylesInput{
		ViewerID: currentUserID(c),
		Search:   c.Query("search"),
		Tag:      c.Query("tag"),
		UserID:   uint(max(c.QueryInt("userId", 0), 0)),
		SortBy:   c.Query("sortBy"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(styleListResponse{
		Styles:     result.Styles,
		Pagination: paginationMeta{Limit: result.Limit, Offset: result.Offset, Total: result.Total},
	})
}

// CreateStyle handles POST /api/styles
// @Summary Create style
// @Tags styles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createStyleRequest true "Style"
// @Success 201 {object} models.Style
// @Failure 400 {object} models.ErrorResponse
// @Router /styles [post]
func (s *Server) CreateStyle(c *fiber.Ctx) error {
	var req createStyleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	style, err := s.styleService.CreateStyle(c.UserContext(), service.CreateStyleInput{
		UserID:         currentUserID(c),
		Title:          req.Title,
		Sref:           req.Sref,
		Images:         req.Images,
		MainImageIndex: req.MainImageIndex,
		Description:    req.Description,
		Tags:           req.Tags,
		Prompt:         req.Prompt,
		Params:         req.Params,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(style)
}

// GetStyleBySlug handles GET /api/styles/:slug
// @Summary Style detail
// @Description Every read increments the view counter
// @Tags styles
// @Produce json
// @Param slug path string true "Slug"
// @Success 200 {object} models.Style
// @Failure 404 {object} models.ErrorResponse
// @Router /styles/{slug} [get]
func (s *Server) GetStyleBySlug(c *fiber.Ctx) error {
	style, err := s.styleService.GetBySlug(c.UserContext(), c.Params("slug"), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(style)
}

// ToggleLike handles POST /api/styles/:id/like
// @Summary Like or unlike a style
// @Tags styles
// @Produce json
// @Security BearerAuth
// @Param id path int true "Style ID"
// @Success 200 {object} object{message=string,isLiked=bool,likesCount=int}
// @Failure 404 {object} models.ErrorResponse
// @Router /styles/{id}/like [post]
func (s *Server) ToggleLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.styleService.ToggleLike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	message := "Style unliked"
	if result.IsLiked {
		message = "Style liked"
	}
	return c.JSON(fiber.Map{
		"message":    message,
		"isLiked":    result.IsLiked,
		"likesCount": result.LikesCount,
	})
}

// MostViewedStyles handles GET /api/styles/most-viewed
// @Summary Most viewed styles
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Entries (max 100)"
// @Success 200 {array} models.StyleRank
// @Router /styles/most-viewed [get]
func (s *Server) MostViewedStyles(c *fiber.Ctx) error {
	return s.topStyles(c, "views")
}

// MostLikedStyles handles GET /api/styles/most-liked
// @Summary Most liked styles
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Entries (max 100)"
// @Success 200 {array} models.StyleRank
// @Router /styles/most-liked [get]
func (s *Server) MostLikedStyles(c *fiber.Ctx) error {
	return s.topStyles(c, "likes")
}

func (s *Server) topStyles(c *fiber.Ctx, by string) error {
	ranks, err := s.styleService.TopStyles(c.UserContext(), by, parsePagination(c, 10).Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(ranks)
}
