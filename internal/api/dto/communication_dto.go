package dto

import (
	"time"

	"github.com/connecta/citizen-service/internal/domain"
	"github.com/connecta/citizen-service/internal/service"
)

// CreateCommunicationRequest payload.
type CreateCommunicationRequest struct {
	Title              string                      `json:"title"`
	Message            string                      `json:"message"`
	Type               domain.CommunicationType    `json:"type"`
	Channel            domain.CommunicationChannel `json:"channel"`
	NeighborhoodFilter *string                     `json:"neighborhood_filter"`
	CategoryFilter     *string                     `json:"category_filter"`
	ScheduledFor       *time.Time                  `json:"scheduled_for"`
	SaveAsDraft        bool                        `json:"save_as_draft"`
}

// UpdateCommunicationRequest payload; absent fields are kept.
type UpdateCommunicationRequest struct {
	Title              *string                      `json:"title"`
	Message            *string                      `json:"message"`
	Type               *domain.CommunicationType    `json:"type"`
	Channel            *domain.CommunicationChannel `json:"channel"`
	NeighborhoodFilter *string                      `json:"neighborhood_filter"`
	CategoryFilter     *string                      `json:"category_filter"`
	ScheduledFor       *time.Time                   `json:"scheduled_for"`
}

// CommunicationResponse response.
type CommunicationResponse struct {
	ID                 string                      `json:"id"`
	CreatorID          string                      `json:"creator_id"`
	Title              string                      `json:"title"`
	Message            string                      `json:"message"`
	Type               domain.CommunicationType    `json:"type"`
	TypeLabel          string                      `json:"type_label"`
	Status             domain.CommunicationStatus  `json:"status"`
	StatusLabel        string                      `json:"status_label"`
	Channel            domain.CommunicationChannel `json:"channel"`
	ChannelLabel       string                      `json:"channel_label"`
	NeighborhoodFilter *string                     `json:"neighborhood_filter"`
	CategoryFilter     *string                     `json:"category_filter"`
	ScheduledFor       *time.Time                  `json:"scheduled_for"`
	SentAt             *time.Time                  `json:"sent_at"`
	TotalRecipients    int                         `json:"total_recipients"`
	TotalSent          int                         `json:"total_sent"`
	TotalErrors        int                         `json:"total_errors"`
	ErrorMessage       *string                     `json:"error_message"`
	CanEdit            bool                        `json:"can_edit"`
	CanCancel          bool                        `json:"can_cancel"`
	CreatedAt          time.Time                   `json:"created_at"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// RecipientResponse response.
type RecipientResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Phone        string     `json:"phone"`
	Sent         bool       `json:"sent"`
	SentAt       *time.Time `json:"sent_at"`
	Failed       bool       `json:"failed"`
	ErrorMessage *string    `json:"error_message"`
	Attempts     int        `json:"attempts"`
}

// CommunicationStatisticsResponse response.
type CommunicationStatisticsResponse struct {
	Total           int64                                `json:"total"`
	ByStatus        map[domain.CommunicationStatus]int64 `json:"by_status"`
	TotalRecipients int64                                `json:"total_recipients"`
	TotalSent       int64                                `json:"total_sent"`
	TotalErrors     int64                                `json:"total_errors"`
	SuccessRate     float64                              `json:"success_rate"`
	ByTypeLabel     map[string]int64                     `json:"by_type"`
	ByChannelLabel  map[string]int64                     `json:"by_channel"`
}

// FromCommunication maps a domain communication.
func FromCommunication(c *domain.Communication) CommunicationResponse {
	return CommunicationResponse{
		ID:                 c.ID,
		CreatorID:          c.CreatorID,
		Title:              c.Title,
		Message:            c.Message,
		Type:               c.Type,
		TypeLabel:          c.Type.Label(),
		Status:             c.Status,
		StatusLabel:        c.Status.Label(),
		Channel:            c.Channel,
		ChannelLabel:       c.Channel.Label(),
		NeighborhoodFilter: c.NeighborhoodFilter,
		CategoryFilter:     c.CategoryFilter,
		ScheduledFor:       c.ScheduledFor,
		SentAt:             c.SentAt,
		TotalRecipients:    c.TotalRecipients,
		TotalSent:          c.TotalSent,
		TotalErrors:        c.TotalErrors,
		ErrorMessage:       c.ErrorMessage,
		CanEdit:            c.CanEdit(),
		CanCancel:          c.CanCancel(),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// FromCommunications maps a communication list.
func FromCommunications(comms []domain.Communication) []CommunicationResponse {
	result := make([]CommunicationResponse, 0, len(comms))
	for i := range comms {
		result = append(result, FromCommunication(&comms[i]))
	}
	return result
}

// FromRecipients maps the delivery targets.
func FromRecipients(recipients []domain.CommunicationRecipient) []RecipientResponse {
	result := make([]RecipientResponse, 0, len(recipients))
	for _, r := range recipients {
		result = append(result, RecipientResponse{
			ID:           r.ID,
			Name:         r.Name,
			Email:        r.Email,
			Phone:        r.Phone,
			Sent:         r.Sent,
			SentAt:       r.SentAt,
			Failed:       r.Failed,
			ErrorMessage: r.ErrorMessage,
			Attempts:     r.Attempts,
		})
	}
	return result
}

// ToCreateInput converts the request to service input.
func (r CreateCommunicationRequest) ToCreateInput() service.CommunicationCreateInput {
	return service.CommunicationCreateInput{
		Title:              r.Title,
		Message:            r.Message,
		Type:               r.Type,
		Channel:            r.Channel,
		NeighborhoodFilter: r.NeighborhoodFilter,
		CategoryFilter:     r.CategoryFilter,
		ScheduledFor:       r.ScheduledFor,
		SaveAsDraft:        r.SaveAsDraft,
	}
}

// ToUpdateInput converts the request to service input.
func (r UpdateCommunicationRequest) ToUpdateInput() service.CommunicationUpdateInput {
	return service.CommunicationUpdateInput{
		Title:              r.Title,
		Message:            r.Message,
		Type:               r.Type,
		Channel:            r.Channel,
		NeighborhoodFilter: r.NeighborhoodFilter,
		CategoryFilter:     r.CategoryFilter,
		ScheduledFor:       r.ScheduledFor,
	}
}
