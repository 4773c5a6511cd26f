package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/connecta/citizen-service/internal/events"
)

// NotificationService logs domain events for operational visibility.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProtocolCreated, n.logEvent)
	n.dispatcher.Subscribe(events.EventProtocolAssigned, n.logEvent)
	n.dispatcher.Subscribe(events.EventProtocolStatusChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventProtocolPriorityChanged, n.logEvent)
	n.dispatcher.Subscribe(events.EventProtocolCommentAdded, n.logEvent)
	n.dispatcher.Subscribe(events.EventProtocolFinalized, n.logEvent)
	n.dispatcher.Subscribe(events.EventCommunicationScheduled, n.logEvent)
	n.dispatcher.Subscribe(events.EventCommunicationSent, n.logEvent)
	n.dispatcher.Subscribe(events.EventCommunicationFailed, n.logEvent)
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info("domain event",
		zap.String("event_type", string(event.Type)),
		zap.String("subject_id", event.SubjectID),
		zap.Any("payload", event.Payload))
	return nil
}
