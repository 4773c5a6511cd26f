package transport

import (
	"context"

	"github.com/connecta/citizen-service/internal/domain"
)

// Message is the channel-agnostic payload handed to senders.
type Message struct {
	Subject string
	Body    string
}

// Sender delivers one message to one recipient over a single channel.
type Sender interface {
	Channel() domain.CommunicationChannel
	Send(ctx context.Context, recipient domain.Recipient, msg Message) error
}

// Registry maps a communication channel to the senders that serve it.
// ALL fans out to every registered concrete channel.
type Registry struct {
	senders map[domain.CommunicationChannel]Sender
	order   []domain.CommunicationChannel
}

// NewRegistry builds a registry from the given senders.
func NewRegistry(senders ...Sender) *Registry {
	r := &Registry{senders: make(map[domain.CommunicationChannel]Sender)}
	for _, s := range senders {
		if _, ok := r.senders[s.Channel()]; ok {
			continue
		}
		r.senders[s.Channel()] = s
		r.order = append(r.order, s.Channel())
	}
	return r
}

// SendersFor resolves the sender set for a channel. Unknown channels
// resolve to an empty set.
func (r *Registry) SendersFor(channel domain.CommunicationChannel) []Sender {
	if channel == domain.ChannelAll {
		result := make([]Sender, 0, len(r.order))
		for _, ch := range r.order {
			result = append(result, r.senders[ch])
		}
		return result
	}
	if s, ok := r.senders[channel]; ok {
		return []Sender{s}
	}
	return nil
}
