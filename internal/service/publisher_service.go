package service

import (
	"context"
	"fmt"

	"video-rag-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// EventsTopic is the in-process topic carrying domain events.
const EventsTopic = "rag.events"

type eventBusPublisher struct {
	publisher message.Publisher
	topic     string
}

// NewEventBusPublisher puts domain events on a watermill topic, where the
// consumer service picks them up.
func NewEventBusPublisher(publisher message.Publisher, topic string) events.Publisher {
	return &eventBusPublisher{
		publisher: publisher,
		topic:     topic,
	}
}

func (p *eventBusPublisher) Publish(ctx context.Context, event events.Event) error {
	payload, err := events.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", event.EventType())

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType(), err)
	}
	return nil
}
