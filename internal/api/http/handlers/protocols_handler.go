package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/connecta/citizen-service/internal/api/dto"
	"github.com/connecta/citizen-service/internal/auth"
	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/service"
	"github.com/connecta/citizen-service/pkg/util"
)

// ProtocolsHandler serves protocol lifecycle endpoints.
type ProtocolsHandler struct {
	protocols *service.ProtocolService
	clock     service.Clock
}

// NewProtocolsHandler builds the handler.
func NewProtocolsHandler(protocols *service.ProtocolService, clock service.Clock) *ProtocolsHandler {
	return &ProtocolsHandler{protocols: protocols, clock: clock}
}

// Create opens a protocol.
func (h *ProtocolsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProtocolRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	protocol, err := h.protocols.Create(c.UserContext(), req.ToCreateInput())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromProtocol(protocol, h.clock.Now()))
}

// List returns protocols filtered by ?status=, ?assignee= or ?overdue=true.
func (h *ProtocolsHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		protocols []domain.Protocol
		err       error
	)
	switch {
	case c.QueryBool("overdue", false):
		protocols, err = h.protocols.ListOverdue(ctx)
	case c.Query("status") != "":
		protocols, err = h.protocols.ListByStatus(ctx, domain.ProtocolStatus(c.Query("status")))
	case c.Query("assignee") != "":
		protocols, err = h.protocols.ListByAssignee(ctx, c.Query("assignee"))
	default:
		protocols, err = h.protocols.List(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"protocols": dto.FromProtocols(protocols, h.clock.Now())})
}

// Get returns the full protocol aggregate.
func (h *ProtocolsHandler) Get(c *fiber.Ctx) error {
	details, err := h.protocols.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromProtocolDetails(details, h.clock.Now()))
}

// GetByNumber returns a protocol by its public number.
func (h *ProtocolsHandler) GetByNumber(c *fiber.Ctx) error {
	number := c.Query("number")
	if number == "" {
		return util.NewValidationError("number query parameter is required", nil)
	}
	details, err := h.protocols.GetByNumber(c.UserContext(), number)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromProtocolDetails(details, h.clock.Now()))
}

// Assign routes the protocol to a staff member.
func (h *ProtocolsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignProtocolRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	protocol, err := h.protocols.Assign(c.UserContext(), c.Params("id"), req.StaffID, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromProtocol(protocol, h.clock.Now()))
}

// ChangeStatus moves the protocol along the lifecycle.
func (h *ProtocolsHandler) ChangeStatus(c *fiber.Ctx) error {
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	protocol, err := h.protocols.ChangeStatus(c.UserContext(), c.Params("id"), req.Status, req.Observation, req.Override, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromProtocol(protocol, h.clock.Now()))
}

// ChangePriority overwrites the priority.
func (h *ProtocolsHandler) ChangePriority(c *fiber.Ctx) error {
	var req dto.ChangePriorityRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	protocol, err := h.protocols.ChangePriority(c.UserContext(), c.Params("id"), req.Priority, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromProtocol(protocol, h.clock.Now()))
}

// AddComment appends a staff comment.
func (h *ProtocolsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return util.NewUnauthorized("authentication required")
	}
	comment, err := h.protocols.AddComment(c.UserContext(), c.Params("id"), principal.User.ID, req.Text, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ProtocolCommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		Internal:  comment.Internal,
		CreatedAt: comment.CreatedAt,
	})
}

// Finalize closes the protocol with its final answer.
func (h *ProtocolsHandler) Finalize(c *fiber.Ctx) error {
	var req dto.FinalizeProtocolRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid request body", nil)
	}
	protocol, err := h.protocols.Finalize(c.UserContext(), c.Params("id"), req.FinalAnswer, actorID(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromProtocol(protocol, h.clock.Now()))
}

// Statistics summarizes the protocol base.
func (h *ProtocolsHandler) Statistics(c *fiber.Ctx) error {
	stats, err := h.protocols.Statistics(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.ProtocolStatisticsResponse{
		Total:                 stats.Total,
		ByStatus:              stats.ByStatus,
		ByStatusLabel:         stats.ByStatusLabel,
		Overdue:               stats.Overdue,
		AverageTurnaroundDays: stats.AverageTurnaroundDays,
		ByCategory:            stats.ByCategory,
	})
}

func actorID(c *fiber.Ctx) *string {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil
	}
	id := principal.User.ID
	return &id
}
