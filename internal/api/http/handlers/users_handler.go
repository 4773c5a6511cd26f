package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/connecta/citizen-service/internal/api/dto"
	"github.com/connecta/citizen-service/internal/auth"
	"github.com/connecta/citizen-service/internal/service"
	"github.com/connecta/citizen-service/pkg/util"
)

// UsersHandler serves staff authentication and account endpoints.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler builds the handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Login authenticates a staff member.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	user, token, expiresAt, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.FromUser(user),
	})
}

// Me returns the authenticated staff member.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	return c.JSON(dto.FromUser(principal.User))
}

// Create registers a staff account.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	user, err := h.auth.CreateUser(c.UserContext(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromUser(user))
}

// List returns all staff members, for assignment pickers.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.auth.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"users": dto.FromUsers(users)})
}
