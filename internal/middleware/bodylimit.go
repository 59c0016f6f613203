package middleware

import (
	"strings"

	"srefhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// BodyLimit answers 413 when the request body is larger than limit bytes.
// Paths in exempt skip the check; the app-wide Fiber BodyLimit still caps them.
func BodyLimit(limit int, exempt ...string) fiber.Handler {
	skip := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		skip[strings.TrimSuffix(p, "/")] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		if _, ok := skip[strings.TrimSuffix(c.Path(), "/")]; ok {
			return c.Next()
		}
		if c.Request().Header.ContentLength() > limit || len(c.Body()) > limit {
			return c.Status(fiber.StatusRequestEntityTooLarge).JSON(models.ErrorResponse{
				Error:      "Request body too large",
				StatusCode: fiber.StatusRequestEntityTooLarge,
			})
		}
		return c.Next()
	}
}
