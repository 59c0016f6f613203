package server

import "github.com/gofiber/fiber/v2"

type featureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// GetFeatureFlags lists configured flags and how they evaluate for the caller,
// so the frontend can hide the LLM parse button when it would only fall back.
// @Summary Feature flags
// @Tags meta
// @Produce json
// @Success 200 {object} featureFlagsResponse
// @Router /feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	resp := featureFlagsResponse{Raw: map[string]string{}, Evaluated: map[string]bool{}}
	if s.featureFlags != nil {
		resp.Raw = s.featureFlags.Raw()
		resp.Evaluated = s.featureFlags.Snapshot(currentUserID(c))
	}
	return c.JSON(resp)
}
