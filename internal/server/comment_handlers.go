package server

import (
	"srefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListComments handles GET /api/styles/:id/comments
// @Summary Comments on a style
// @Description Oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Style ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Router /styles/{id}/comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	styleID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), styleID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/styles/:id/comments
// @Summary Comment on a style
// @Tags comments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Style ID"
// @Param request body object{text=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /styles/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	styleID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  currentUserID(c),
		StyleID: styleID,
		Text:    req.Text,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
