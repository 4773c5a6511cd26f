package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/connecta/citizen-service/internal/api/dto"
	"github.com/connecta/citizen-service/internal/service"
	"github.com/connecta/citizen-service/pkg/util"
)

// ServicesHandler serves service catalog endpoints.
type ServicesHandler struct {
	catalog *service.CatalogService
}

// NewServicesHandler builds the handler.
func NewServicesHandler(catalog *service.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalog}
}

// List returns services; ?active=true narrows to active ones.
func (h *ServicesHandler) List(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)
	services, err := h.catalog.ListServices(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"services": dto.FromServices(services)})
}

// Get returns a single service with its field definitions.
func (h *ServicesHandler) Get(c *fiber.Ctx) error {
	svc, err := h.catalog.GetService(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromService(svc))
}

// Create registers a service.
func (h *ServicesHandler) Create(c *fiber.Ctx) error {
	var req dto.ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	svc, err := h.catalog.CreateService(c.UserContext(), req.ToServiceInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromService(svc))
}

// Update applies changes to a service.
func (h *ServicesHandler) Update(c *fiber.Ctx) error {
	var req dto.ServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	svc, err := h.catalog.UpdateService(c.UserContext(), c.Params("id"), req.ToServiceInput())
	if err != nil {
		return err
	}
	return c.JSON(dto.FromService(svc))
}

// Delete removes a service.
func (h *ServicesHandler) Delete(c *fiber.Ctx) error {
	if err := h.catalog.DeleteService(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FieldKinds lists the closed field kind catalog.
func (h *ServicesHandler) FieldKinds(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"field_kinds": dto.FromFieldKinds(h.catalog.FieldKinds())})
}
