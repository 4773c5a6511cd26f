package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/events"
	"github.com/connecta/citizen-service/internal/persistence"
	"github.com/connecta/citizen-service/internal/repository"
	"github.com/connecta/citizen-service/internal/transport"
	"github.com/connecta/citizen-service/pkg/util"
)

// DispatchService runs the bulk communication lifecycle.
type DispatchService struct {
	comms      repository.CommunicationRepository
	recipients repository.RecipientRepository
	resolver   transport.RecipientResolver
	registry   *transport.Registry
	tx         persistence.TxManager
	clock      Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// DispatchDependencies bundles collaborators for the dispatch service.
type DispatchDependencies struct {
	CommunicationRepo repository.CommunicationRepository
	RecipientRepo     repository.RecipientRepository
	Resolver          transport.RecipientResolver
	Registry          *transport.Registry
	TxManager         persistence.TxManager
	Clock             Clock
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// CommunicationCreateInput describes creation payload.
type CommunicationCreateInput struct {
	Title              string
	Message            string
	Type               domain.CommunicationType
	Channel            domain.CommunicationChannel
	NeighborhoodFilter *string
	CategoryFilter     *string
	ScheduledFor       *time.Time
	SaveAsDraft        bool
}

// CommunicationUpdateInput carries partial update fields; nil means keep.
type CommunicationUpdateInput struct {
	Title              *string
	Message            *string
	Type               *domain.CommunicationType
	Channel            *domain.CommunicationChannel
	NeighborhoodFilter *string
	CategoryFilter     *string
	ScheduledFor       *time.Time
}

// CommunicationStatistics summarizes the communication base.
type CommunicationStatistics struct {
	Total           int64
	ByStatus        map[domain.CommunicationStatus]int64
	TotalRecipients int64
	TotalSent       int64
	TotalErrors     int64
	SuccessRate     float64
	ByTypeLabel     map[string]int64
	ByChannelLabel  map[string]int64
}

// NewDispatchService constructs the service.
func NewDispatchService(deps DispatchDependencies) *DispatchService {
	return &DispatchService{
		comms:      deps.CommunicationRepo,
		recipients: deps.RecipientRepo,
		resolver:   deps.Resolver,
		registry:   deps.Registry,
		tx:         deps.TxManager,
		clock:      deps.Clock,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// Create registers a communication, resolves its audience and, when neither
// saved as draft nor scheduled for the future, sends it right away.
func (s *DispatchService) Create(ctx context.Context, creatorID string, input CommunicationCreateInput) (*domain.Communication, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, util.NewValidationError("title is required", nil)
	}
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, util.NewValidationError("message is required", nil)
	}
	if !input.Type.Valid() {
		return nil, util.NewValidationError("unknown communication type", map[string]any{"type": input.Type})
	}
	if !input.Channel.Valid() {
		return nil, util.NewValidationError("unknown channel", map[string]any{"channel": input.Channel})
	}

	now := s.clock.Now()
	status := domain.CommStatusDraft
	sendNow := false
	if !input.SaveAsDraft {
		if input.ScheduledFor != nil && input.ScheduledFor.After(now) {
			status = domain.CommStatusScheduled
		} else {
			sendNow = true
		}
	}

	filter := domain.RecipientFilter{}
	if input.NeighborhoodFilter != nil {
		filter.Neighborhood = *input.NeighborhoodFilter
	}
	if input.CategoryFilter != nil {
		filter.Category = *input.CategoryFilter
	}
	audience, err := s.resolver.Resolve(ctx, filter)
	if err != nil {
		return nil, err
	}

	comm := &domain.Communication{
		CreatorID:          creatorID,
		Title:              title,
		Message:            message,
		Type:               input.Type,
		Status:             status,
		Channel:            input.Channel,
		NeighborhoodFilter: input.NeighborhoodFilter,
		CategoryFilter:     input.CategoryFilter,
		ScheduledFor:       input.ScheduledFor,
		TotalRecipients:    len(audience),
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.comms.Create(ctx, comm); err != nil {
			return err
		}
		for _, r := range audience {
			record := &domain.CommunicationRecipient{
				CommunicationID: comm.ID,
				Name:            r.Name,
				Email:           r.Email,
				Phone:           r.Phone,
			}
			if err := s.recipients.Create(ctx, record); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if status == domain.CommStatusScheduled {
		s.publish(ctx, events.Event{
			Type:      events.EventCommunicationScheduled,
			SubjectID: comm.ID,
			ActorID:   &creatorID,
			Payload: events.CommunicationScheduledPayload{
				Title:        comm.Title,
				Channel:      comm.Channel,
				ScheduledFor: comm.ScheduledFor,
			},
		})
	}
	if sendNow {
		return s.Send(ctx, comm.ID)
	}
	return comm, nil
}

// Send delivers a communication to every pending recipient. Counters
// reflect this pass only; a resend overwrites them.
func (s *DispatchService) Send(ctx context.Context, id string) (*domain.Communication, error) {
	comm, err := s.comms.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "communication")
	}
	if comm.Status != domain.CommStatusDraft && comm.Status != domain.CommStatusScheduled {
		return nil, util.NewInvalidState("communication cannot be sent in current status", map[string]any{
			"status": comm.Status,
		})
	}

	comm.Status = domain.CommStatusSending
	if err := s.comms.Update(ctx, comm); err != nil {
		return nil, err
	}

	pending, err := s.recipients.ListPending(ctx, comm.ID)
	if err != nil {
		return nil, err
	}
	senders := s.registry.SendersFor(comm.Channel)
	msg := transport.Message{Subject: comm.Title, Body: comm.Message}

	sent, failed := 0, 0
	for i := range pending {
		recipient := &pending[i]
		recipient.Attempts++

		deliverErr := s.deliver(ctx, senders, recipient, msg)
		if deliverErr != nil {
			failed++
			recipient.Failed = true
			errMsg := deliverErr.Error()
			recipient.ErrorMessage = &errMsg
			s.logger.Warn("recipient delivery failed",
				zap.String("communication_id", comm.ID),
				zap.String("recipient", recipient.Email),
				zap.Error(deliverErr))
		} else {
			sent++
			now := s.clock.Now()
			recipient.Sent = true
			recipient.SentAt = &now
			recipient.Failed = false
			recipient.ErrorMessage = nil
		}
		if err := s.recipients.Update(ctx, recipient); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()
	comm.TotalSent = sent
	comm.TotalErrors = failed
	comm.SentAt = &now
	comm.ErrorMessage = nil
	if failed > 0 {
		comm.Status = domain.CommStatusError
		errMsg := fmt.Sprintf("%d de %d envios falharam", failed, sent+failed)
		comm.ErrorMessage = &errMsg
	} else {
		comm.Status = domain.CommStatusSent
	}
	if err := s.comms.Update(ctx, comm); err != nil {
		return nil, err
	}

	if failed > 0 {
		s.publish(ctx, events.Event{
			Type:      events.EventCommunicationFailed,
			SubjectID: comm.ID,
			Payload: events.CommunicationFailedPayload{
				Title:        comm.Title,
				ErrorMessage: *comm.ErrorMessage,
			},
		})
	} else {
		s.publish(ctx, events.Event{
			Type:      events.EventCommunicationSent,
			SubjectID: comm.ID,
			Payload: events.CommunicationSentPayload{
				Title:       comm.Title,
				TotalSent:   sent,
				TotalErrors: failed,
			},
		})
	}
	return comm, nil
}

// Cancel stops a scheduled or in-flight communication.
func (s *DispatchService) Cancel(ctx context.Context, id string) (*domain.Communication, error) {
	comm, err := s.comms.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "communication")
	}
	if !comm.CanCancel() {
		return nil, util.NewInvalidState("communication cannot be cancelled in current status", map[string]any{
			"status": comm.Status,
		})
	}
	comm.Status = domain.CommStatusCancelled
	if err := s.comms.Update(ctx, comm); err != nil {
		return nil, err
	}
	return comm, nil
}

// Update applies partial changes while the communication is still editable.
// A new future schedule re-promotes to SCHEDULED.
func (s *DispatchService) Update(ctx context.Context, id string, input CommunicationUpdateInput) (*domain.Communication, error) {
	comm, err := s.comms.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "communication")
	}
	if !comm.CanEdit() {
		return nil, util.NewInvalidState("communication cannot be edited in current status", map[string]any{
			"status": comm.Status,
		})
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, util.NewValidationError("title is required", nil)
		}
		comm.Title = title
	}
	if input.Message != nil {
		message := strings.TrimSpace(*input.Message)
		if message == "" {
			return nil, util.NewValidationError("message is required", nil)
		}
		comm.Message = message
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, util.NewValidationError("unknown communication type", map[string]any{"type": *input.Type})
		}
		comm.Type = *input.Type
	}
	if input.Channel != nil {
		if !input.Channel.Valid() {
			return nil, util.NewValidationError("unknown channel", map[string]any{"channel": *input.Channel})
		}
		comm.Channel = *input.Channel
	}
	if input.NeighborhoodFilter != nil {
		comm.NeighborhoodFilter = input.NeighborhoodFilter
	}
	if input.CategoryFilter != nil {
		comm.CategoryFilter = input.CategoryFilter
	}
	if input.ScheduledFor != nil {
		comm.ScheduledFor = input.ScheduledFor
		if input.ScheduledFor.After(s.clock.Now()) {
			comm.Status = domain.CommStatusScheduled
		}
	}

	if err := s.comms.Update(ctx, comm); err != nil {
		return nil, err
	}
	return comm, nil
}

// Delete removes a communication; only drafts may be deleted.
func (s *DispatchService) Delete(ctx context.Context, id string) error {
	comm, err := s.comms.GetByID(ctx, id)
	if err != nil {
		return notFoundOr(err, "communication")
	}
	if comm.Status != domain.CommStatusDraft {
		return util.NewInvalidState("only drafts can be deleted", map[string]any{
			"status": comm.Status,
		})
	}
	return s.comms.Delete(ctx, id)
}

// Communications still SENDING after this long are considered stranded by a
// crashed pass and go back to the schedule.
const stuckSendingGrace = 10 * time.Minute

// ProcessDue sends every scheduled communication whose time has come. A
// failure in one never aborts the rest. Returns the number processed.
func (s *DispatchService) ProcessDue(ctx context.Context) (int, error) {
	now := s.clock.Now()
	requeued, err := s.comms.ResetStuckSending(ctx, now.Add(-stuckSendingGrace))
	if err != nil {
		return 0, err
	}
	if requeued > 0 {
		s.logger.Warn("requeued communications stuck in sending", zap.Int64("count", requeued))
	}

	due, err := s.comms.ListDue(ctx, now)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, comm := range due {
		if _, err := s.Send(ctx, comm.ID); err != nil {
			s.logger.Error("scheduled send failed",
				zap.String("communication_id", comm.ID),
				zap.Error(err))
			continue
		}
		processed++
	}
	return processed, nil
}

// GetByID fetches a communication.
func (s *DispatchService) GetByID(ctx context.Context, id string) (*domain.Communication, error) {
	comm, err := s.comms.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "communication")
	}
	return comm, nil
}

// ListRecipients returns the delivery targets of a communication.
func (s *DispatchService) ListRecipients(ctx context.Context, id string) ([]domain.CommunicationRecipient, error) {
	if _, err := s.comms.GetByID(ctx, id); err != nil {
		return nil, notFoundOr(err, "communication")
	}
	return s.recipients.ListByCommunication(ctx, id)
}

// List returns all communications, newest first.
func (s *DispatchService) List(ctx context.Context) ([]domain.Communication, error) {
	return s.comms.List(ctx)
}

// ListByStatus returns communications in the given status.
func (s *DispatchService) ListByStatus(ctx context.Context, status domain.CommunicationStatus) ([]domain.Communication, error) {
	if !status.Valid() {
		return nil, util.NewValidationError("unknown status", map[string]any{"status": status})
	}
	return s.comms.ListByStatus(ctx, status)
}

// ListByCreator returns communications created by the given staff member.
func (s *DispatchService) ListByCreator(ctx context.Context, creatorID string) ([]domain.Communication, error) {
	return s.comms.ListByCreator(ctx, creatorID)
}

// Statistics summarizes the communication base.
func (s *DispatchService) Statistics(ctx context.Context) (*CommunicationStatistics, error) {
	total, err := s.comms.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CommunicationStatistics{
		Total:          total,
		ByStatus:       make(map[domain.CommunicationStatus]int64),
		ByTypeLabel:    make(map[string]int64),
		ByChannelLabel: make(map[string]int64),
	}
	for _, status := range []domain.CommunicationStatus{
		domain.CommStatusDraft,
		domain.CommStatusScheduled,
		domain.CommStatusSent,
		domain.CommStatusError,
	} {
		count, err := s.comms.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
	}

	counters, err := s.comms.SumCounters(ctx)
	if err != nil {
		return nil, err
	}
	stats.TotalRecipients = counters.Recipients
	stats.TotalSent = counters.Sent
	stats.TotalErrors = counters.Errors
	if counters.Recipients > 0 {
		stats.SuccessRate = float64(counters.Sent) / float64(counters.Recipients) * 100
	}

	byType, err := s.comms.CountGroupedByType(ctx)
	if err != nil {
		return nil, err
	}
	for commType, count := range byType {
		stats.ByTypeLabel[commType.Label()] = count
	}

	byChannel, err := s.comms.CountGroupedByChannel(ctx)
	if err != nil {
		return nil, err
	}
	for channel, count := range byChannel {
		stats.ByChannelLabel[channel.Label()] = count
	}
	return stats, nil
}

func (s *DispatchService) deliver(ctx context.Context, senders []transport.Sender, recipient *domain.CommunicationRecipient, msg transport.Message) error {
	if len(senders) == 0 {
		return fmt.Errorf("no transport registered for channel")
	}
	target := domain.Recipient{
		Name:  recipient.Name,
		Email: recipient.Email,
		Phone: recipient.Phone,
	}
	for _, sender := range senders {
		if err := sender.Send(ctx, target, msg); err != nil {
			return err
		}
	}
	return nil
}

func (s *DispatchService) publish(ctx context.Context, event events.Event) {
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
