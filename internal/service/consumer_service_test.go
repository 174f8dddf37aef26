package service

import (
	"context"
	"testing"
	"time"

	"video-rag-chat-be/internal/observability"
	"video-rag-chat-be/internal/pkg/logger"
	"video-rag-chat-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer bus.Close()

	metrics := observability.NewMetrics("test", nil)
	consumer := NewConsumerService(bus, EventsTopic, metrics, logger.NewNopLogger())
	require.NoError(t, consumer.Consume(ctx))

	pub := NewEventBusPublisher(bus, EventsTopic)
	require.NoError(t, pub.Publish(ctx, events.NewSummaryCreated("s1", "abcdefghijk", 120)))
	require.NoError(t, pub.Publish(ctx, events.NewChatAnswered("s1", 3, 2)))
	require.NoError(t, bus.Publish(EventsTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(events.TypeSummaryCreated)) == 1 &&
			testutil.ToFloat64(metrics.EventsConsumed.WithLabelValues(events.TypeChatAnswered)) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
