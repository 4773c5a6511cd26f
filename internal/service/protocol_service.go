package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/events"
	"github.com/connecta/citizen-service/internal/persistence"
	"github.com/connecta/citizen-service/internal/repository"
	"github.com/connecta/citizen-service/pkg/util"
)

// ProtocolService coordinates the protocol lifecycle.
type ProtocolService struct {
	protocols  repository.ProtocolRepository
	data       repository.ProtocolDataRepository
	history    repository.ProtocolHistoryRepository
	comments   repository.ProtocolCommentRepository
	services   repository.CatalogServiceRepository
	users      repository.UserRepository
	tx         persistence.TxManager
	clock      Clock
	dispatcher events.Dispatcher
}

// ProtocolDependencies bundles collaborators for the protocol service.
type ProtocolDependencies struct {
	ProtocolRepo repository.ProtocolRepository
	DataRepo     repository.ProtocolDataRepository
	HistoryRepo  repository.ProtocolHistoryRepository
	CommentRepo  repository.ProtocolCommentRepository
	ServiceRepo  repository.CatalogServiceRepository
	UserRepo     repository.UserRepository
	TxManager    persistence.TxManager
	Clock        Clock
	Dispatcher   events.Dispatcher
}

// ProtocolDataInput carries one submitted field value.
type ProtocolDataInput struct {
	Kind  domain.FieldKind
	Value string
}

// ProtocolCreateInput describes protocol creation payload.
type ProtocolCreateInput struct {
	ServiceID    string
	CitizenName  string
	CitizenEmail string
	CitizenPhone string
	Description  string
	Priority     domain.ProtocolPriority
	Data         []ProtocolDataInput
}

// ProtocolDetails aggregates a protocol with its owned collections.
type ProtocolDetails struct {
	Protocol *domain.Protocol
	Data     []domain.ProtocolDataEntry
	History  []domain.ProtocolHistoryEntry
	Comments []domain.ProtocolComment
}

// ProtocolStatistics summarizes the protocol base. Overdue is recomputed
// on every call, never cached.
type ProtocolStatistics struct {
	Total                 int64
	ByStatus              map[domain.ProtocolStatus]int64
	ByStatusLabel         map[string]int64
	Overdue               int64
	AverageTurnaroundDays float64
	ByCategory            map[string]int64
}

// NewProtocolService constructs the service.
func NewProtocolService(deps ProtocolDependencies) *ProtocolService {
	return &ProtocolService{
		protocols:  deps.ProtocolRepo,
		data:       deps.DataRepo,
		history:    deps.HistoryRepo,
		comments:   deps.CommentRepo,
		services:   deps.ServiceRepo,
		users:      deps.UserRepo,
		tx:         deps.TxManager,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
	}
}

// allowedTransitions is the legal edge set of the lifecycle. CANCELLED is
// reachable from every non-terminal state.
var allowedTransitions = map[domain.ProtocolStatus][]domain.ProtocolStatus{
	domain.ProtocolStatusOpen:         {domain.ProtocolStatusUnderReview, domain.ProtocolStatusCancelled},
	domain.ProtocolStatusUnderReview:  {domain.ProtocolStatusInProgress, domain.ProtocolStatusCancelled},
	domain.ProtocolStatusInProgress:   {domain.ProtocolStatusAwaitingInfo, domain.ProtocolStatusApproved, domain.ProtocolStatusRejected, domain.ProtocolStatusCancelled},
	domain.ProtocolStatusAwaitingInfo: {domain.ProtocolStatusInProgress, domain.ProtocolStatusCancelled},
	domain.ProtocolStatusApproved:     {domain.ProtocolStatusFinalized, domain.ProtocolStatusCancelled},
	domain.ProtocolStatusRejected:     {domain.ProtocolStatusFinalized, domain.ProtocolStatusCancelled},
	domain.ProtocolStatusFinalized:    {},
	domain.ProtocolStatusCancelled:    {},
}

func isValidTransition(current, next domain.ProtocolStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Create opens a new protocol against an active catalog service. The
// protocol, its data entries and the CREATED history entry commit together.
func (s *ProtocolService) Create(ctx context.Context, input ProtocolCreateInput) (*domain.Protocol, error) {
	svc, err := s.services.GetByID(ctx, input.ServiceID)
	if err != nil {
		return nil, notFoundOr(err, "service")
	}
	if !svc.IsActive {
		return nil, util.NewInvalidState("service is inactive", map[string]any{"service_id": svc.ID})
	}
	if err := validateDataEntries(svc, input.Data); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	protocol := &domain.Protocol{
		ServiceID:    svc.ID,
		CitizenName:  strings.TrimSpace(input.CitizenName),
		CitizenEmail: strings.TrimSpace(input.CitizenEmail),
		CitizenPhone: strings.TrimSpace(input.CitizenPhone),
		Status:       domain.ProtocolStatusOpen,
		Priority:     input.Priority,
		Deadline:     now.Add(time.Duration(svc.SLADays) * 24 * time.Hour),
		Description:  strings.TrimSpace(input.Description),
	}
	if protocol.Priority == "" {
		protocol.Priority = domain.ProtocolPriorityMedium
	}
	if !protocol.Priority.Valid() {
		return nil, util.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		seq, err := s.protocols.NextYearSequence(ctx, now.Year())
		if err != nil {
			return err
		}
		protocol.Number = fmt.Sprintf("#%d%04d", now.Year(), seq)

		if err := s.protocols.Create(ctx, protocol); err != nil {
			return err
		}
		for _, entry := range input.Data {
			record := &domain.ProtocolDataEntry{
				ProtocolID: protocol.ID,
				Kind:       entry.Kind,
				Value:      strings.TrimSpace(entry.Value),
			}
			if err := s.data.Create(ctx, record); err != nil {
				return err
			}
		}
		return s.history.Create(ctx, &domain.ProtocolHistoryEntry{
			ProtocolID:  protocol.ID,
			Action:      domain.ActionCreated,
			Description: fmt.Sprintf("Protocolo %s criado para o serviço %s", protocol.Number, svc.Title),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProtocolCreated,
		SubjectID: protocol.ID,
		Payload: events.ProtocolCreatedPayload{
			Number:    protocol.Number,
			ServiceID: protocol.ServiceID,
			Priority:  protocol.Priority,
			Deadline:  protocol.Deadline,
		},
	})
	return protocol, nil
}

// Assign routes a protocol to a staff member. An OPEN protocol advances to
// UNDER_REVIEW as a side effect.
func (s *ProtocolService) Assign(ctx context.Context, protocolID, staffID string, actorID *string) (*domain.Protocol, error) {
	protocol, err := s.protocols.GetByID(ctx, protocolID)
	if err != nil {
		return nil, notFoundOr(err, "protocol")
	}
	staff, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		return nil, notFoundOr(err, "staff")
	}

	previousName := "Nenhum"
	if protocol.AssigneeID != nil {
		if previous, err := s.users.GetByID(ctx, *protocol.AssigneeID); err == nil {
			previousName = previous.Name
		}
	}
	previousAssignee := protocol.AssigneeID

	protocol.AssigneeID = &staff.ID
	var previousStatus *domain.ProtocolStatus
	if protocol.Status == domain.ProtocolStatusOpen {
		open := domain.ProtocolStatusOpen
		review := domain.ProtocolStatusUnderReview
		previousStatus = &open
		protocol.Status = review
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.protocols.Update(ctx, protocol); err != nil {
			return err
		}
		entry := &domain.ProtocolHistoryEntry{
			ProtocolID:  protocol.ID,
			ActorID:     actorID,
			Action:      domain.ActionAssigned,
			Description: fmt.Sprintf("Responsável alterado de %s para %s", previousName, staff.Name),
		}
		if previousStatus != nil {
			status := protocol.Status
			entry.PreviousStatus = previousStatus
			entry.NewStatus = &status
		}
		return s.history.Create(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProtocolAssigned,
		SubjectID: protocol.ID,
		ActorID:   actorID,
		Payload: events.ProtocolAssignedPayload{
			PreviousAssigneeID: previousAssignee,
			AssigneeID:         staff.ID,
		},
	})
	return protocol, nil
}

// ChangeStatus moves a protocol along the lifecycle. Illegal edges fail
// with InvalidState; override skips the table for non-terminal sources and
// is recorded in the history entry.
func (s *ProtocolService) ChangeStatus(ctx context.Context, protocolID string, newStatus domain.ProtocolStatus, observation string, override bool, actorID *string) (*domain.Protocol, error) {
	if !newStatus.Valid() {
		return nil, util.NewValidationError("unknown status", map[string]any{"status": newStatus})
	}
	protocol, err := s.protocols.GetByID(ctx, protocolID)
	if err != nil {
		return nil, notFoundOr(err, "protocol")
	}
	if protocol.Status.Terminal() {
		return nil, util.NewInvalidState("protocol is in a terminal state", map[string]any{
			"status": protocol.Status,
		})
	}
	if !override && !isValidTransition(protocol.Status, newStatus) {
		return nil, util.NewInvalidState("status transition not allowed", map[string]any{
			"from": protocol.Status,
			"to":   newStatus,
		})
	}

	oldStatus := protocol.Status
	protocol.Status = newStatus
	if newStatus == domain.ProtocolStatusFinalized && protocol.FinalizedAt == nil {
		now := s.clock.Now()
		protocol.FinalizedAt = &now
	}

	description := strings.TrimSpace(observation)
	if description == "" {
		description = fmt.Sprintf("Status alterado de %s para %s", oldStatus.Label(), newStatus.Label())
	}
	if override {
		description += " (alteração forçada)"
	}
	action := domain.ActionStatusChanged
	if newStatus == domain.ProtocolStatusAwaitingInfo {
		action = domain.ActionInfoRequested
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.protocols.Update(ctx, protocol); err != nil {
			return err
		}
		return s.history.Create(ctx, &domain.ProtocolHistoryEntry{
			ProtocolID:     protocol.ID,
			ActorID:        actorID,
			Action:         action,
			Description:    description,
			PreviousStatus: &oldStatus,
			NewStatus:      &protocol.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProtocolStatusChanged,
		SubjectID: protocol.ID,
		ActorID:   actorID,
		Payload: events.ProtocolStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: protocol.Status,
			Comment:   observation,
			Override:  override,
		},
	})
	return protocol, nil
}

// ChangePriority overwrites the priority and records the change.
func (s *ProtocolService) ChangePriority(ctx context.Context, protocolID string, newPriority domain.ProtocolPriority, actorID *string) (*domain.Protocol, error) {
	if !newPriority.Valid() {
		return nil, util.NewValidationError("unknown priority", map[string]any{"priority": newPriority})
	}
	protocol, err := s.protocols.GetByID(ctx, protocolID)
	if err != nil {
		return nil, notFoundOr(err, "protocol")
	}

	oldPriority := protocol.Priority
	protocol.Priority = newPriority

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.protocols.Update(ctx, protocol); err != nil {
			return err
		}
		return s.history.Create(ctx, &domain.ProtocolHistoryEntry{
			ProtocolID:  protocol.ID,
			ActorID:     actorID,
			Action:      domain.ActionPriorityChanged,
			Description: fmt.Sprintf("Prioridade alterada de %s para %s", oldPriority.Label(), newPriority.Label()),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProtocolPriorityChanged,
		SubjectID: protocol.ID,
		ActorID:   actorID,
		Payload: events.ProtocolPriorityChangedPayload{
			OldPriority: oldPriority,
			NewPriority: newPriority,
		},
	})
	return protocol, nil
}

// AddComment appends a staff comment. The history entry records only the
// visibility, never the content.
func (s *ProtocolService) AddComment(ctx context.Context, protocolID, authorID, text string, internal bool) (*domain.ProtocolComment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, util.NewValidationError("comment text is required", nil)
	}
	protocol, err := s.protocols.GetByID(ctx, protocolID)
	if err != nil {
		return nil, notFoundOr(err, "protocol")
	}
	if _, err := s.users.GetByID(ctx, authorID); err != nil {
		return nil, notFoundOr(err, "staff")
	}

	comment := &domain.ProtocolComment{
		ProtocolID: protocol.ID,
		AuthorID:   authorID,
		Text:       text,
		Internal:   internal,
	}
	visibility := "público"
	if internal {
		visibility = "interno"
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.comments.Create(ctx, comment); err != nil {
			return err
		}
		return s.history.Create(ctx, &domain.ProtocolHistoryEntry{
			ProtocolID:  protocol.ID,
			ActorID:     &authorID,
			Action:      domain.ActionCommentAdded,
			Description: fmt.Sprintf("Comentário %s adicionado", visibility),
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProtocolCommentAdded,
		SubjectID: protocol.ID,
		ActorID:   &authorID,
		Payload: events.ProtocolCommentAddedPayload{
			CommentID:   comment.ID,
			Internal:    internal,
			BodyPreview: stringPreview(text, 120),
		},
	})
	return comment, nil
}

// Finalize closes a protocol with its final answer.
func (s *ProtocolService) Finalize(ctx context.Context, protocolID, finalAnswer string, actorID *string) (*domain.Protocol, error) {
	protocol, err := s.protocols.GetByID(ctx, protocolID)
	if err != nil {
		return nil, notFoundOr(err, "protocol")
	}
	if protocol.Status.Terminal() {
		return nil, util.NewInvalidState("protocol is in a terminal state", map[string]any{
			"status": protocol.Status,
		})
	}

	now := s.clock.Now()
	oldStatus := protocol.Status
	answer := strings.TrimSpace(finalAnswer)
	protocol.Status = domain.ProtocolStatusFinalized
	protocol.FinalizedAt = &now
	protocol.FinalAnswer = &answer

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.protocols.Update(ctx, protocol); err != nil {
			return err
		}
		return s.history.Create(ctx, &domain.ProtocolHistoryEntry{
			ProtocolID:     protocol.ID,
			ActorID:        actorID,
			Action:         domain.ActionFinalized,
			Description:    "Protocolo finalizado com resposta ao solicitante",
			PreviousStatus: &oldStatus,
			NewStatus:      &protocol.Status,
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:      events.EventProtocolFinalized,
		SubjectID: protocol.ID,
		ActorID:   actorID,
		Payload:   events.ProtocolFinalizedPayload{Resolution: answer},
	})
	return protocol, nil
}

// GetByID fetches a protocol with its data, history and comments.
func (s *ProtocolService) GetByID(ctx context.Context, id string) (*ProtocolDetails, error) {
	protocol, err := s.protocols.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "protocol")
	}
	return s.loadDetails(ctx, protocol)
}

// GetByNumber fetches a protocol by its public number.
func (s *ProtocolService) GetByNumber(ctx context.Context, number string) (*ProtocolDetails, error) {
	protocol, err := s.protocols.GetByNumber(ctx, number)
	if err != nil {
		return nil, notFoundOr(err, "protocol")
	}
	return s.loadDetails(ctx, protocol)
}

// List returns all protocols, newest first.
func (s *ProtocolService) List(ctx context.Context) ([]domain.Protocol, error) {
	return s.protocols.List(ctx)
}

// ListByStatus returns protocols in the given status.
func (s *ProtocolService) ListByStatus(ctx context.Context, status domain.ProtocolStatus) ([]domain.Protocol, error) {
	if !status.Valid() {
		return nil, util.NewValidationError("unknown status", map[string]any{"status": status})
	}
	return s.protocols.ListByStatus(ctx, status)
}

// ListByAssignee returns protocols routed to the given staff member.
func (s *ProtocolService) ListByAssignee(ctx context.Context, assigneeID string) ([]domain.Protocol, error) {
	return s.protocols.ListByAssignee(ctx, assigneeID)
}

// ListOverdue returns non-terminal protocols past their deadline.
func (s *ProtocolService) ListOverdue(ctx context.Context) ([]domain.Protocol, error) {
	return s.protocols.ListOverdue(ctx, s.clock.Now())
}

// Statistics summarizes the protocol base.
func (s *ProtocolService) Statistics(ctx context.Context) (*ProtocolStatistics, error) {
	stats := &ProtocolStatistics{
		ByStatus:      make(map[domain.ProtocolStatus]int64),
		ByStatusLabel: make(map[string]int64),
	}
	for status := range allowedTransitions {
		count, err := s.protocols.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.ByStatusLabel[status.Label()] = count
		stats.Total += count
	}

	overdue, err := s.protocols.CountOverdue(ctx, s.clock.Now())
	if err != nil {
		return nil, err
	}
	stats.Overdue = overdue

	avg, err := s.protocols.AverageTurnaroundDays(ctx)
	if err != nil {
		return nil, err
	}
	stats.AverageTurnaroundDays = avg

	byCategory, err := s.protocols.CountByCategory(ctx)
	if err != nil {
		return nil, err
	}
	stats.ByCategory = byCategory
	return stats, nil
}

func (s *ProtocolService) loadDetails(ctx context.Context, protocol *domain.Protocol) (*ProtocolDetails, error) {
	data, err := s.data.ListByProtocol(ctx, protocol.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.history.ListByProtocol(ctx, protocol.ID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByProtocol(ctx, protocol.ID)
	if err != nil {
		return nil, err
	}
	return &ProtocolDetails{
		Protocol: protocol,
		Data:     data,
		History:  history,
		Comments: comments,
	}, nil
}

func (s *ProtocolService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func validateDataEntries(svc *domain.CatalogService, entries []ProtocolDataInput) error {
	supplied := make(map[domain.FieldKind]bool, len(entries))
	for _, entry := range entries {
		if !entry.Kind.Valid() {
			return util.NewValidationError("unknown field kind", map[string]any{"kind": entry.Kind})
		}
		if supplied[entry.Kind] {
			return util.NewValidationError("duplicate field kind", map[string]any{"kind": entry.Kind})
		}
		supplied[entry.Kind] = true
	}

	var missing []string
	for _, kind := range svc.RequiredFieldKinds() {
		if !supplied[kind] {
			missing = append(missing, string(kind))
		}
	}
	if len(missing) > 0 {
		return util.NewValidationError("required fields missing", map[string]any{"missing": missing})
	}
	return nil
}

// stringPreview truncates on rune boundaries so accented text never ends
// in a split character.
func stringPreview(body string, max int) string {
	runes := []rune(strings.TrimSpace(body))
	if len(runes) <= max {
		return string(runes)
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
