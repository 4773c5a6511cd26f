package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	var received []Event
	d.Subscribe(EventProtocolCreated, func(_ context.Context, event Event) error {
		received = append(received, event)
		return nil
	})
	d.Subscribe(EventProtocolFinalized, func(_ context.Context, event Event) error {
		t.Fatal("handler for another event type must not fire")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventProtocolCreated, SubjectID: "protocol-1"})
	require.NoError(t, err)
	require.Len(t, received, 1)
	assert.Equal(t, "protocol-1", received[0].SubjectID)
}

func TestDispatcherHandlerErrorDoesNotPropagate(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())

	calls := 0
	d.Subscribe(EventCommunicationSent, func(context.Context, Event) error {
		calls++
		return errors.New("handler blew up")
	})
	d.Subscribe(EventCommunicationSent, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventCommunicationSent, SubjectID: "comm-1"})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestDispatcherNoSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventProtocolAssigned}))
}
