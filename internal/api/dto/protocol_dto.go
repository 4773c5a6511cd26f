package dto

import (
	"time"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/service"
)

// ProtocolDataRequest carries one submitted field value.
type ProtocolDataRequest struct {
	Kind  domain.FieldKind `json:"kind"`
	Value string           `json:"value"`
}

// CreateProtocolRequest payload.
type CreateProtocolRequest struct {
	ServiceID    string                  `json:"service_id"`
	CitizenName  string                  `json:"citizen_name"`
	CitizenEmail string                  `json:"citizen_email"`
	CitizenPhone string                  `json:"citizen_phone"`
	Description  string                  `json:"description"`
	Priority     domain.ProtocolPriority `json:"priority"`
	Data         []ProtocolDataRequest   `json:"data"`
}

// AssignProtocolRequest payload.
type AssignProtocolRequest struct {
	StaffID string `json:"staff_id"`
}

// ChangeStatusRequest payload.
type ChangeStatusRequest struct {
	Status      domain.ProtocolStatus `json:"status"`
	Observation string                `json:"observation"`
	Override    bool                  `json:"override"`
}

// ChangePriorityRequest payload.
type ChangePriorityRequest struct {
	Priority domain.ProtocolPriority `json:"priority"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	Text     string `json:"text"`
	Internal bool   `json:"internal"`
}

// FinalizeProtocolRequest payload.
type FinalizeProtocolRequest struct {
	FinalAnswer string `json:"final_answer"`
}

// ProtocolSummary response.
type ProtocolSummary struct {
	ID            string                  `json:"id"`
	Number        string                  `json:"number"`
	ServiceID     string                  `json:"service_id"`
	CitizenName   string                  `json:"citizen_name"`
	Status        domain.ProtocolStatus   `json:"status"`
	StatusLabel   string                  `json:"status_label"`
	Priority      domain.ProtocolPriority `json:"priority"`
	PriorityLabel string                  `json:"priority_label"`
	PriorityColor string                  `json:"priority_color"`
	AssigneeID    *string                 `json:"assignee_id"`
	Deadline      time.Time               `json:"deadline"`
	Overdue       bool                    `json:"overdue"`
	DaysRemaining int                     `json:"days_remaining"`
	CreatedAt     time.Time               `json:"created_at"`
	UpdatedAt     time.Time               `json:"updated_at"`
}

// ProtocolDataResponse response.
type ProtocolDataResponse struct {
	Kind  domain.FieldKind `json:"kind"`
	Label string           `json:"label"`
	Value string           `json:"value"`
}

// ProtocolHistoryResponse response.
type ProtocolHistoryResponse struct {
	ID             string                 `json:"id"`
	ActorID        *string                `json:"actor_id"`
	Action         domain.ProtocolAction  `json:"action"`
	ActionLabel    string                 `json:"action_label"`
	Description    string                 `json:"description"`
	PreviousStatus *domain.ProtocolStatus `json:"previous_status,omitempty"`
	NewStatus      *domain.ProtocolStatus `json:"new_status,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}

// ProtocolCommentResponse response.
type ProtocolCommentResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Text      string    `json:"text"`
	Internal  bool      `json:"internal"`
	CreatedAt time.Time `json:"created_at"`
}

// ProtocolDetailResponse provides full protocol info.
type ProtocolDetailResponse struct {
	ProtocolSummary
	CitizenEmail string                    `json:"citizen_email"`
	CitizenPhone string                    `json:"citizen_phone"`
	Description  string                    `json:"description"`
	FinalizedAt  *time.Time                `json:"finalized_at"`
	FinalAnswer  *string                   `json:"final_answer"`
	Data         []ProtocolDataResponse    `json:"data"`
	History      []ProtocolHistoryResponse `json:"history"`
	Comments     []ProtocolCommentResponse `json:"comments"`
}

// ProtocolStatisticsResponse response.
type ProtocolStatisticsResponse struct {
	Total                 int64                           `json:"total"`
	ByStatus              map[domain.ProtocolStatus]int64 `json:"by_status"`
	ByStatusLabel         map[string]int64                `json:"by_status_label"`
	Overdue               int64                           `json:"overdue"`
	AverageTurnaroundDays float64                         `json:"average_turnaround_days"`
	ByCategory            map[string]int64                `json:"by_category"`
}

// FromProtocol maps a summary view; now drives the derived fields.
func FromProtocol(p *domain.Protocol, now time.Time) ProtocolSummary {
	return ProtocolSummary{
		ID:            p.ID,
		Number:        p.Number,
		ServiceID:     p.ServiceID,
		CitizenName:   p.CitizenName,
		Status:        p.Status,
		StatusLabel:   p.Status.Label(),
		Priority:      p.Priority,
		PriorityLabel: p.Priority.Label(),
		PriorityColor: p.Priority.Color(),
		AssigneeID:    p.AssigneeID,
		Deadline:      p.Deadline,
		Overdue:       p.IsOverdue(now),
		DaysRemaining: p.DaysRemaining(now),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// FromProtocols maps a protocol list.
func FromProtocols(protocols []domain.Protocol, now time.Time) []ProtocolSummary {
	result := make([]ProtocolSummary, 0, len(protocols))
	for i := range protocols {
		result = append(result, FromProtocol(&protocols[i], now))
	}
	return result
}

// FromProtocolDetails maps the full aggregate.
func FromProtocolDetails(details *service.ProtocolDetails, now time.Time) ProtocolDetailResponse {
	p := details.Protocol
	data := make([]ProtocolDataResponse, 0, len(details.Data))
	for _, entry := range details.Data {
		data = append(data, ProtocolDataResponse{
			Kind:  entry.Kind,
			Label: entry.Kind.Label(),
			Value: entry.Value,
		})
	}
	history := make([]ProtocolHistoryResponse, 0, len(details.History))
	for _, entry := range details.History {
		history = append(history, ProtocolHistoryResponse{
			ID:             entry.ID,
			ActorID:        entry.ActorID,
			Action:         entry.Action,
			ActionLabel:    entry.Action.Label(),
			Description:    entry.Description,
			PreviousStatus: entry.PreviousStatus,
			NewStatus:      entry.NewStatus,
			CreatedAt:      entry.CreatedAt,
		})
	}
	comments := make([]ProtocolCommentResponse, 0, len(details.Comments))
	for _, comment := range details.Comments {
		comments = append(comments, ProtocolCommentResponse{
			ID:        comment.ID,
			AuthorID:  comment.AuthorID,
			Text:      comment.Text,
			Internal:  comment.Internal,
			CreatedAt: comment.CreatedAt,
		})
	}
	return ProtocolDetailResponse{
		ProtocolSummary: FromProtocol(p, now),
		CitizenEmail:    p.CitizenEmail,
		CitizenPhone:    p.CitizenPhone,
		Description:     p.Description,
		FinalizedAt:     p.FinalizedAt,
		FinalAnswer:     p.FinalAnswer,
		Data:            data,
		History:         history,
		Comments:        comments,
	}
}

// ToCreateInput converts the request to service input.
func (r CreateProtocolRequest) ToCreateInput() service.ProtocolCreateInput {
	data := make([]service.ProtocolDataInput, 0, len(r.Data))
	for _, entry := range r.Data {
		data = append(data, service.ProtocolDataInput{Kind: entry.Kind, Value: entry.Value})
	}
	return service.ProtocolCreateInput{
		ServiceID:    r.ServiceID,
		CitizenName:  r.CitizenName,
		CitizenEmail: r.CitizenEmail,
		CitizenPhone: r.CitizenPhone,
		Description:  r.Description,
		Priority:     r.Priority,
		Data:         data,
	}
}
