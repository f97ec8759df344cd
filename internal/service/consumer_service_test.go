package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"notesync-be/internal/pkg/logger"
	"notesync-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	mu       sync.Mutex
	received []events.NoteEvent
	err      error
}

func (s *sink) Publish(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := event.(events.NoteEvent); ok {
		s.received = append(s.received, e)
	}
	return s.err
}

func (s *sink) BroadcastNoteEvent(ctx context.Context, event events.NoteEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.received = append(s.received, event)
	return s.err
}

func (s *sink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.received)
}

func TestConsumerService_DispatchesToSinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	forwarder := &sink{err: errors.New("nats down")}
	broadcaster := &sink{}
	consumer := NewConsumerService(pubSub, "NOTE_EVENTS", forwarder, broadcaster, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("NOTE_EVENTS", pubSub)
	require.NoError(t, publisher.Publish(ctx, events.NewNoteEvent(events.NoteCreated, "n1")))
	require.NoError(t, publisher.Publish(ctx, events.NewNoteEvent(events.NoteDeleted, "n1")))

	require.Eventually(t, func() bool { return broadcaster.count() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, forwarder.count(), "a failing forwarder does not stop the broadcast")

	broadcaster.mu.Lock()
	defer broadcaster.mu.Unlock()
	assert.Equal(t, "n1", broadcaster.received[0].NoteId)
	assert.Equal(t, events.NoteCreated, broadcaster.received[0].Type)
	assert.Equal(t, events.NoteDeleted, broadcaster.received[1].Type)
}

func TestConsumerService_NilSinks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	consumer := NewConsumerService(pubSub, "NOTE_EVENTS", nil, nil, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService("NOTE_EVENTS", pubSub)
	assert.NoError(t, publisher.Publish(ctx, events.NewNoteEvent(events.NoteUpdated, "n1")))
}
