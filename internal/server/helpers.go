package server

import (
	"errors"
	"strings"
	"unicode"

	"srefhub/internal/middleware"
	"srefhub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten means a helper already wrote the error response; the
// handler returns nil so the app ErrorHandler does not write a second one.
var errResponseWritten = errors.New("response already written")

// Pagination is a resolved limit/offset window.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
	// maxPage keeps (page-1)*limit far from int overflow.
	maxPage = 10000
)

// parsePagination reads ?limit= and either ?offset= or a 1-based ?page=.
// Out-of-range values fall back to defaults rather than failing.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxPaginationLimit)

	offset := c.QueryInt("offset", -1)
	if offset < 0 {
		page := min(max(c.QueryInt("page", 1), 1), maxPage)
		offset = (page - 1) * limit
	}
	return Pagination{Limit: limit, Offset: offset}
}

// parseID reads a positive integer route param, answering 400
// "Invalid <label>" otherwise.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into dest, writing a 400 on failure.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// humanizeParam turns a route param into a label for error messages:
// "id" -> "ID", "collectionStyleId" -> "collection style ID".
func humanizeParam(param string) string {
	base, isID := strings.CutSuffix(param, "Id")
	if param == "id" {
		base, isID = "", true
	}
	if !isID {
		return param
	}

	var b strings.Builder
	for i, r := range base {
		if i > 0 && unicode.IsUpper(r) {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	if b.Len() == 0 {
		return "ID"
	}
	return b.String() + " ID"
}

// respondServiceError writes err with the status its AppError carries.
func respondServiceError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.StatusFor(err), err)
}

func currentUserID(c *fiber.Ctx) uint {
	return middleware.CurrentUserID(c)
}
