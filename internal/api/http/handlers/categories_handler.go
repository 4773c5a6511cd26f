package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/connecta/citizen-service/internal/api/dto"
	"github.com/connecta/citizen-service/internal/service"
	"github.com/connecta/citizen-service/pkg/util"
)

// CategoriesHandler serves category catalog endpoints.
type CategoriesHandler struct {
	catalog *service.CatalogService
}

// NewCategoriesHandler builds the handler.
func NewCategoriesHandler(catalog *service.CatalogService) *CategoriesHandler {
	return &CategoriesHandler{catalog: catalog}
}

// List returns categories; ?active=true narrows to active ones.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	categories, err := h.catalog.ListCategories(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": dto.FromCategories(categories)})
}

// Get returns a single category.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	category, err := h.catalog.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromCategory(category))
}

// Create registers a category.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), req.ToCategoryInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCategory(category))
}

// Update applies changes to a category.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	category, err := h.catalog.UpdateCategory(c.UserContext(), c.Params("id"), req.ToCategoryInput())
	if err != nil {
		return err
	}
	return c.JSON(dto.FromCategory(category))
}

// Delete removes a category.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	if err := h.catalog.DeleteCategory(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListServices returns the services under a category.
func (h *CategoriesHandler) ListServices(c *fiber.Ctx) error {
	services, err := h.catalog.ListServicesByCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"services": dto.FromServices(services)})
}
