package service

import (
	"context"
	"encoding/json"

	"notesync-be/internal/pkg/logger"
	"notesync-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const consumerModule = "ConsumerService"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// EventForwarder ships events to an external bus (NATS).
type EventForwarder interface {
	Publish(ctx context.Context, event events.Event) error
}

// NoteEventBroadcaster pushes events to connected websocket clients.
type NoteEventBroadcaster interface {
	BroadcastNoteEvent(ctx context.Context, event events.NoteEvent) error
}

type consumerService struct {
	pubSub      *gochannel.GoChannel
	topicName   string
	forwarder   EventForwarder
	broadcaster NoteEventBroadcaster
	logger      logger.ILogger
}

// NewConsumerService wires the in-process topic to its sinks. forwarder and
// broadcaster may be nil.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	forwarder EventForwarder,
	broadcaster NoteEventBroadcaster,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		pubSub:      pubSub,
		topicName:   topicName,
		forwarder:   forwarder,
		broadcaster: broadcaster,
		logger:      log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: sinks are best effort and a failed delivery is
// not retried.
func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var event events.NoteEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error(consumerModule, "Failed to unmarshal note event", map[string]interface{}{"message_id": msg.UUID, "error": err})
		return
	}

	if cs.forwarder != nil {
		if err := cs.forwarder.Publish(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to forward note event", map[string]interface{}{"note_id": event.NoteId, "type": event.Type, "error": err.Error()})
		}
	}

	if cs.broadcaster != nil {
		if err := cs.broadcaster.BroadcastNoteEvent(ctx, event); err != nil {
			cs.logger.Warn(consumerModule, "Failed to broadcast note event", map[string]interface{}{"note_id": event.NoteId, "type": event.Type, "error": err.Error()})
		}
	}

	cs.logger.Debug(consumerModule, "Note event dispatched", map[string]interface{}{"note_id": event.NoteId, "type": event.Type})
}
