package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connecta/citizen-service/internal/domain"
)

type nopSender struct {
	channel domain.CommunicationChannel
}

func (s nopSender) Channel() domain.CommunicationChannel { return s.channel }

func (s nopSender) Send(context.Context, domain.Recipient, Message) error { return nil }

func TestRegistrySendersFor(t *testing.T) {
	email := nopSender{channel: domain.ChannelEmail}
	sms := nopSender{channel: domain.ChannelSMS}
	registry := NewRegistry(email, sms)

	require.Len(t, registry.SendersFor(domain.ChannelEmail), 1)
	assert.Equal(t, domain.ChannelEmail, registry.SendersFor(domain.ChannelEmail)[0].Channel())

	assert.Nil(t, registry.SendersFor(domain.ChannelApp))
}

func TestRegistryAllFansOutInRegistrationOrder(t *testing.T) {
	email := nopSender{channel: domain.ChannelEmail}
	sms := nopSender{channel: domain.ChannelSMS}
	app := nopSender{channel: domain.ChannelApp}
	registry := NewRegistry(email, sms, app)

	senders := registry.SendersFor(domain.ChannelAll)
	require.Len(t, senders, 3)
	assert.Equal(t, domain.ChannelEmail, senders[0].Channel())
	assert.Equal(t, domain.ChannelSMS, senders[1].Channel())
	assert.Equal(t, domain.ChannelApp, senders[2].Channel())
}

func TestRegistryIgnoresDuplicateChannel(t *testing.T) {
	first := nopSender{channel: domain.ChannelEmail}
	second := nopSender{channel: domain.ChannelEmail}
	registry := NewRegistry(first, second)

	assert.Len(t, registry.SendersFor(domain.ChannelAll), 1)
}
