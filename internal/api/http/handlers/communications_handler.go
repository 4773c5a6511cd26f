package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/connecta/citizen-service/internal/api/dto"
	"github.com/connecta/citizen-service/internal/auth"
	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/service"
	"github.com/connecta/citizen-service/pkg/util"
)

// CommunicationsHandler serves bulk communication endpoints.
type CommunicationsHandler struct {
	dispatch *service.DispatchService
}

// NewCommunicationsHandler builds the handler.
func NewCommunicationsHandler(dispatch *service.DispatchService) *CommunicationsHandler {
	return &CommunicationsHandler{dispatch: dispatch}
}

// Create registers a communication; may send immediately.
func (h *CommunicationsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCommunicationRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	comm, err := h.dispatch.Create(c.UserContext(), principal.User.ID, req.ToCreateInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromCommunication(comm))
}

// List returns communications filtered by ?status= or ?creator=.
func (h *CommunicationsHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		comms []domain.Communication
		err   error
	)
	switch {
	case c.Query("status") != "":
		comms, err = h.dispatch.ListByStatus(ctx, domain.CommunicationStatus(c.Query("status")))
	case c.Query("creator") != "":
		comms, err = h.dispatch.ListByCreator(ctx, c.Query("creator"))
	default:
		comms, err = h.dispatch.List(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"communications": dto.FromCommunications(comms)})
}

// Get returns a single communication.
func (h *CommunicationsHandler) Get(c *fiber.Ctx) error {
	comm, err := h.dispatch.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromCommunication(comm))
}

// Recipients returns the delivery targets with per-recipient outcome.
func (h *CommunicationsHandler) Recipients(c *fiber.Ctx) error {
	recipients, err := h.dispatch.ListRecipients(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"recipients": dto.FromRecipients(recipients)})
}

// Update applies partial changes while still editable.
func (h *CommunicationsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateCommunicationRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	comm, err := h.dispatch.Update(c.UserContext(), c.Params("id"), req.ToUpdateInput())
	if err != nil {
		return err
	}
	return c.JSON(dto.FromCommunication(comm))
}

// Send delivers the communication now.
func (h *CommunicationsHandler) Send(c *fiber.Ctx) error {
	comm, err := h.dispatch.Send(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromCommunication(comm))
}

// Cancel stops a scheduled or in-flight communication.
func (h *CommunicationsHandler) Cancel(c *fiber.Ctx) error {
	comm, err := h.dispatch.Cancel(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromCommunication(comm))
}

// Delete removes a draft.
func (h *CommunicationsHandler) Delete(c *fiber.Ctx) error {
	if err := h.dispatch.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Statistics summarizes the communication base.
func (h *CommunicationsHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.dispatch.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.CommunicationStatisticsResponse{
		Total:           stats.Total,
		ByStatus:        stats.ByStatus,
		TotalRecipients: stats.TotalRecipients,
		TotalSent:       stats.TotalSent,
		TotalErrors:     stats.TotalErrors,
		SuccessRate:     stats.SuccessRate,
		ByTypeLabel:     stats.ByTypeLabel,
		ByChannelLabel:  stats.ByChannelLabel,
	})
}
