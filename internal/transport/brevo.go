package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/connecta/citizen-service/internal/config"
	"github.com/connecta/citizen-service/internal/domain"
)

type brevoContact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

type brevoEmailRequest struct {
	Sender      brevoContact   `json:"sender"`
	To          []brevoContact `json:"to"`
	ReplyTo     *brevoContact  `json:"replyTo,omitempty"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
}

type brevoErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BrevoEmailSender delivers email through the Brevo transactional API.
type BrevoEmailSender struct {
	client  *resty.Client
	from    brevoContact
	replyTo *brevoContact
}

// NewBrevoEmailSender configures a resty client against the Brevo API.
func NewBrevoEmailSender(cfg config.MailConfig) *BrevoEmailSender {
	client := resty.New().
		SetBaseURL(cfg.BrevoBaseURL).
		SetHeader("api-key", cfg.BrevoAPIKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(15 * time.Second)

	sender := &BrevoEmailSender{
		client: client,
		from:   brevoContact{Name: cfg.FromName, Email: cfg.FromAddress},
	}
	if cfg.ReplyToAddress != "" {
		sender.replyTo = &brevoContact{Name: cfg.ReplyToName, Email: cfg.ReplyToAddress}
	}
	return sender
}

// Channel identifies this sender as the email transport.
func (s *BrevoEmailSender) Channel() domain.CommunicationChannel {
	return domain.ChannelEmail
}

// Send posts a transactional email for a single recipient.
func (s *BrevoEmailSender) Send(ctx context.Context, recipient domain.Recipient, msg Message) error {
	if recipient.Email == "" {
		return fmt.Errorf("recipient %q has no email address", recipient.Name)
	}

	body := brevoEmailRequest{
		Sender:      s.from,
		To:          []brevoContact{{Name: recipient.Name, Email: recipient.Email}},
		ReplyTo:     s.replyTo,
		Subject:     msg.Subject,
		HTMLContent: msg.Body,
	}

	var apiErr brevoErrorResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetError(&apiErr).
		Post("/v3/smtp/email")
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	if resp.IsError() {
		if apiErr.Message != "" {
			return fmt.Errorf("brevo rejected email (%s): %s", apiErr.Code, apiErr.Message)
		}
		return fmt.Errorf("brevo rejected email: status %d", resp.StatusCode())
	}
	return nil
}
