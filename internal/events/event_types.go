package events

import (
	"time"

	"github.com/connecta/citizen-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProtocolCreated         EventType = "protocol_created"
	EventProtocolAssigned        EventType = "protocol_assigned"
	EventProtocolStatusChanged   EventType = "protocol_status_changed"
	EventProtocolPriorityChanged EventType = "protocol_priority_changed"
	EventProtocolCommentAdded    EventType = "protocol_comment_added"
	EventProtocolFinalized       EventType = "protocol_finalized"

	EventCommunicationScheduled EventType = "communication_scheduled"
	EventCommunicationSent      EventType = "communication_sent"
	EventCommunicationFailed    EventType = "communication_failed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	ActorID   *string     `json:"actor_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProtocolCreatedPayload payload.
type ProtocolCreatedPayload struct {
	Number    string                  `json:"number"`
	ServiceID string                  `json:"service_id"`
	Priority  domain.ProtocolPriority `json:"priority"`
	Deadline  time.Time               `json:"deadline"`
}

// ProtocolAssignedPayload payload.
type ProtocolAssignedPayload struct {
	PreviousAssigneeID *string `json:"previous_assignee_id,omitempty"`
	AssigneeID         string  `json:"assignee_id"`
}

// ProtocolStatusChangedPayload payload.
type ProtocolStatusChangedPayload struct {
	OldStatus domain.ProtocolStatus `json:"old_status"`
	NewStatus domain.ProtocolStatus `json:"new_status"`
	Comment   string                `json:"comment,omitempty"`
	Override  bool                  `json:"override,omitempty"`
}

// ProtocolPriorityChangedPayload payload.
type ProtocolPriorityChangedPayload struct {
	OldPriority domain.ProtocolPriority `json:"old_priority"`
	NewPriority domain.ProtocolPriority `json:"new_priority"`
}

// ProtocolCommentAddedPayload payload.
type ProtocolCommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	Internal    bool   `json:"internal"`
	BodyPreview string `json:"body_preview"`
}

// ProtocolFinalizedPayload payload.
type ProtocolFinalizedPayload struct {
	Resolution string `json:"resolution"`
}

// CommunicationScheduledPayload payload.
type CommunicationScheduledPayload struct {
	Title        string                      `json:"title"`
	Channel      domain.CommunicationChannel `json:"channel"`
	ScheduledFor *time.Time                  `json:"scheduled_for,omitempty"`
}

// CommunicationSentPayload payload.
type CommunicationSentPayload struct {
	Title       string `json:"title"`
	TotalSent   int    `json:"total_sent"`
	TotalErrors int    `json:"total_errors"`
}

// CommunicationFailedPayload payload.
type CommunicationFailedPayload struct {
	Title        string `json:"title"`
	ErrorMessage string `json:"error_message"`
}
