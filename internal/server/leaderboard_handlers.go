package server

import (
	"github.com/gofiber/fiber/v2"
)

// Contributors handles GET /api/leaderboard/contributors and GET /api/users/leaderboard
// @Summary Top contributors
// @Tags leaderboard
// @Produce json
// @Param sort query string false "styles (default) or likes"
// @Param limit query int false "Entries (max 100)"
// @Success 200 {array} models.LeaderboardEntry
// @Router /leaderboard/contributors [get]
func (s *Server) Contributors(c *fiber.Ctx) error {
	entries, err := s.leaderboardService.Contributors(c.UserContext(), c.Query("sort"), parsePagination(c, 10).Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(entries)
}

// TopStyles handles GET /api/leaderboard/styles
// @Summary Top styles
// @Tags leaderboard
// @Produce json
// @Param by query string false "views (default) or likes"
// @Param limit query int false "Entries (max 100)"
// @Success 200 {array} models.StyleRank
// @Router /leaderboard/styles [get]
func (s *Server) TopStyles(c *fiber.Ctx) error {
	return s.topStyles(c, c.Query("by", "views"))
}
