package server

import (
	"srefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type collectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// ListMyCollections handles GET /api/collections
// @Summary Caller's collections
// @Tags collections
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Collection
// @Router /collections [get]
func (s *Server) ListMyCollections(c *fiber.Ctx) error {
	collections, err := s.collectionService.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(collections)
}

// GetCollection handles GET /api/collections/:id
// @Summary Collection with its styles
// @Tags collections
// @Produce json
// @Param id path int true "Collection ID"
// @Success 200 {object} models.Collection
// @Failure 404 {object} models.ErrorResponse
// @Router /collections/{id} [get]
func (s *Server) GetCollection(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	collection, err := s.collectionService.Get(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(collection)
}

// CreateCollection handles POST /api/collections
// @Summary Create collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body collectionRequest true "Collection"
// @Success 201 {object} models.Collection
// @Failure 400 {object} models.ErrorResponse
// @Router /collections [post]
func (s *Server) CreateCollection(c *fiber.Ctx) error {
	var req collectionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreateCollectionInput{UserID: currentUserID(c)}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	collection, err := s.collectionService.Create(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(collection)
}

// UpdateCollection handles PUT /api/collections/:id
// @Summary Rename or describe a collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param request body collectionRequest true "Fields to change"
// @Success 200 {object} models.Collection
// @Failure 403 {object} models.ErrorResponse
// @Router /collections/{id} [put]
func (s *Server) UpdateCollection(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req collectionRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	collection, err := s.collectionService.Update(c.UserContext(), service.UpdateCollectionInput{
		UserID:       currentUserID(c),
		CollectionID: id,
		Name:         req.Name,
		Description:  req.Description,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(collection)
}

// DeleteCollection handles DELETE /api/collections/:id
// @Summary Delete collection
// @Tags collections
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /collections/{id} [delete]
func (s *Server) DeleteCollection(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.collectionService.Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Collection deleted"})
}

// AddCollectionStyle handles POST /api/collections/:id/styles/:styleId
// @Summary Add a style to a collection
// @Tags collections
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param styleId path int true "Style ID"
// @Success 201 {object} object{message=string}
// @Failure 409 {object} models.ErrorResponse
// @Router /collections/{id}/styles/{styleId} [post]
func (s *Server) AddCollectionStyle(c *fiber.Ctx) error {
	in, ok := collectionStyleInput(c)
	if !ok {
		return nil
	}
	if err := s.collectionService.AddStyle(c.UserContext(), in); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Style added to collection"})
}

// RemoveCollectionStyle handles DELETE /api/collections/:id/styles/:styleId
// @Summary Remove a style from a collection
// @Tags collections
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param styleId path int true "Style ID"
// @Success 200 {object} object{message=string}
// @Router /collections/{id}/styles/{styleId} [delete]
func (s *Server) RemoveCollectionStyle(c *fiber.Ctx) error {
	in, ok := collectionStyleInput(c)
	if !ok {
		return nil
	}
	if err := s.collectionService.RemoveStyle(c.UserContext(), in); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Style removed from collection"})
}

// ToggleCollectionStyle handles POST /api/collections/:id/styles/:styleId/toggle
// @Summary Toggle collection membership
// @Tags collections
// @Security BearerAuth
// @Param id path int true "Collection ID"
// @Param styleId path int true "Style ID"
// @Success 200 {object} object{inCollection=bool}
// @Router /collections/{id}/styles/{styleId}/toggle [post]
func (s *Server) ToggleCollectionStyle(c *fiber.Ctx) error {
	in, ok := collectionStyleInput(c)
	if !ok {
		return nil
	}
	inCollection, err := s.collectionService.ToggleStyle(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"inCollection": inCollection})
}

func collectionStyleInput(c *fiber.Ctx) (service.CollectionStyleInput, bool) {
	collectionID, err := parseID(c, "id")
	if err != nil {
		return service.CollectionStyleInput{}, false
	}
	styleID, err := parseID(c, "styleId")
	if err != nil {
		return service.CollectionStyleInput{}, false
	}
	return service.CollectionStyleInput{
		UserID:       currentUserID(c),
		CollectionID: collectionID,
		StyleID:      styleID,
	}, true
}
