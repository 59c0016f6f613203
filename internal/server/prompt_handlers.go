package server

import (
	"github.com/gofiber/fiber/v2"
)

// ParsePrompt handles POST /api/prompts/parse (alias POST /api/gemini/parse-prompt)
// @Summary Extract Midjourney parameters
// @Description Uses the LLM when enabled and falls back to the local grammar on any failure
// @Tags prompts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{prompt=string} true "Prompt"
// @Success 200 {object} promptparse.Result
// @Failure 400 {object} models.ErrorResponse
// @Router /prompts/parse [post]
func (s *Server) ParsePrompt(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	result, err := s.promptService.Parse(c.UserContext(), currentUserID(c), req.Prompt)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}
