package server

import (
	"srefhub/internal/middleware"
	"srefhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/auth/register
// @Summary Register
// @Description Create an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Registration"
// @Success 201 {object} service.Session
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/register [post]
func (s *Server) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.authService.Register(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login handles POST /api/auth/login
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Credentials"
// @Success 200 {object} service.Session
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	session, err := s.authService.Login(c.UserContext(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(session)
}

// Me handles GET /api/auth/me
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/me [get]
func (s *Server) Me(c *fiber.Ctx) error {
	user, err := s.authService.Me(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(user)
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the presented token until it expires
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.authService.Logout(c.UserContext(), middleware.CurrentClaims(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}
