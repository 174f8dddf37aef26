package service

import (
	"context"

	"video-rag-chat-be/internal/observability"
	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	metrics    *observability.Metrics
	logger     logger.ILogger
}

// NewConsumerService builds the audit consumer: it records every domain
// event in the log and the events_consumed counter.
func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	metrics *observability.Metrics,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		metrics:    metrics,
		logger:     log,
	}
}

// Consume subscribes and processes messages in the background until ctx is
// cancelled or the subscriber is closed.
func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	event, err := events.Unmarshal(msg.Payload)
	if err != nil {
		cs.logger.Warn("CONSUMER", "Dropping undecodable event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		// Redelivery cannot fix a bad payload
		msg.Ack()
		return
	}

	if cs.metrics != nil {
		cs.metrics.EventsConsumed.WithLabelValues(event.EventType()).Inc()
	}

	details := map[string]interface{}{
		"message_id": msg.UUID,
		"type":       event.EventType(),
	}
	for k, v := range event.Payload() {
		details[k] = v
	}
	cs.logger.Info("CONSUMER", "Event received", details)

	msg.Ack()
}
