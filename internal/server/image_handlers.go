package server

import (
	"fmt"
	"io"
	"mime/multipart"

	"srefhub/internal/models"
	"srefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ImageUploadResponse is the API response after uploading images.
type ImageUploadResponse struct {
	Images []*models.Image `json:"images"`
	URLs   []string        `json:"urls"`
}

// UploadImages handles POST /api/uploads/images
// @Summary Upload style images
// @Description Accepts up to 4 files in "images" or a single "image"
// @Tags uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param images formData file false "Images"
// @Success 201 {object} ImageUploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /uploads/images [post]
func (s *Server) UploadImages(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	files := form.File["images"]
	if len(files) == 0 {
		files = form.File["image"]
	}
	if len(files) == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if len(files) > service.MaxUploadFiles {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(fmt.Sprintf("At most %d images per upload", service.MaxUploadFiles)))
	}

	tier, err := s.callerTier(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	resp := ImageUploadResponse{
		Images: make([]*models.Image, 0, len(files)),
		URLs:   make([]string, 0, len(files)),
	}
	for _, file := range files {
		img, err := s.uploadFile(c, file, tier, service.ImageKindStyle)
		if err != nil {
			return respondServiceError(c, err)
		}
		resp.Images = append(resp.Images, img)
		resp.URLs = append(resp.URLs, img.URL)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// ListMyImages handles GET /api/uploads/images
// @Summary Caller's uploads
// @Tags uploads
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Image
// @Router /uploads/images [get]
func (s *Server) ListMyImages(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	images, err := s.imageService.ListMine(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(images)
}

// UploadAvatar handles POST /api/users/me/avatar
// @Summary Upload avatar
// @Description Center-cropped to a 512px square
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar"
// @Success 200 {object} models.User
// @Router /users/me/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		file, err = c.FormFile("image")
	}
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}

	tier, err := s.callerTier(c)
	if err != nil {
		return respondServiceError(c, err)
	}
	img, err := s.uploadFile(c, file, tier, service.ImageKindAvatar)
	if err != nil {
		return respondServiceError(c, err)
	}

	user, err := s.userService.SetAvatar(c.UserContext(), currentUserID(c), img.URL)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

func (s *Server) callerTier(c *fiber.Ctx) (models.SubscriptionTier, error) {
	userID := currentUserID(c)
	user, err := s.userService.GetProfile(c.UserContext(), userID, userID)
	if err != nil {
		return "", err
	}
	return user.Tier, nil
}

func (s *Server) uploadFile(c *fiber.Ctx, file *multipart.FileHeader, tier models.SubscriptionTier, kind service.ImageKind) (*models.Image, error) {
	src, err := file.Open()
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, models.NewValidationError("Unable to read uploaded file")
	}

	return s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      currentUserID(c),
		Tier:        tier,
		Kind:        kind,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
}
