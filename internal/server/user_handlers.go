package server

import (
	"srefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Name   *string `json:"name"`
	Bio    *string `json:"bio"`
	Avatar *string `json:"avatar"`
}

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetProfile(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// UpdateUserProfile handles PUT /api/users/:id
// @Summary Update profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body updateProfileRequest true "Fields to change"
// @Success 200 {object} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id} [put]
func (s *Server) UpdateUserProfile(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.updateProfile(c, id)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body updateProfileRequest true "Fields to change"
// @Success 200 {object} models.User
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	return s.updateProfile(c, currentUserID(c))
}

func (s *Server) updateProfile(c *fiber.Ctx, userID uint) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ActorID: currentUserID(c),
		UserID:  userID,
		Name:    req.Name,
		Bio:     req.Bio,
		Avatar:  req.Avatar,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// ToggleFollow handles POST /api/users/:id/follow
// @Summary Follow or unfollow a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} service.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) ToggleFollow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.userService.ToggleFollow(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(result)
}

// ListUserStyles handles GET /api/users/:id/styles
// @Summary Styles authored by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} styleListResponse
// @Router /users/{id}/styles [get]
func (s *Server) ListUserStyles(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	styles, total, err := s.userService.ListStyles(c.UserContext(), id, currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(styleListResponse{
		Styles:     styles,
		Pagination: paginationMeta{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// ListFollowers handles GET /api/users/:id/followers
// @Summary Followers
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.User
// @Router /users/{id}/followers [get]
func (s *Server) ListFollowers(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	users, err := s.userService.ListFollowers(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// ListFollowing handles GET /api/users/:id/following
// @Summary Followed users
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.User
// @Router /users/{id}/following [get]
func (s *Server) ListFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	users, err := s.userService.ListFollowing(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(users)
}

// ListUserCollections handles GET /api/users/:id/collections
// @Summary Collections owned by a user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.Collection
// @Router /users/{id}/collections [get]
func (s *Server) ListUserCollections(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	collections, err := s.userService.ListCollections(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(collections)
}
