package transport

import (
	"context"

	"github.com/connecta/citizen-service/internal/config"
	"github.com/connecta/citizen-service/internal/domain"
)

// RecipientResolver expands an audience filter into concrete recipients.
type RecipientResolver interface {
	Resolve(ctx context.Context, filter domain.RecipientFilter) ([]domain.Recipient, error)
}

// StaticResolver serves a fixed recipient list from configuration. The
// citizen registry is not part of this service yet, so filters are
// accepted but not applied.
type StaticResolver struct {
	recipients []domain.Recipient
}

// NewStaticResolver builds the resolver from dispatch configuration.
func NewStaticResolver(cfg config.DispatchConfig) *StaticResolver {
	entries := cfg.RecipientEntries()
	recipients := make([]domain.Recipient, 0, len(entries))
	for _, entry := range entries {
		recipients = append(recipients, domain.Recipient{
			Name:  entry[0],
			Email: entry[1],
			Phone: entry[2],
		})
	}
	return &StaticResolver{recipients: recipients}
}

// Resolve returns a copy of the configured list.
func (r *StaticResolver) Resolve(_ context.Context, _ domain.RecipientFilter) ([]domain.Recipient, error) {
	result := make([]domain.Recipient, len(r.recipients))
	copy(result, r.recipients)
	return result, nil
}
