package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/classdesk/classdesk-api/internal/dto"
)

func TestEventServiceDeliversToSubscribers(t *testing.T) {
	svc := NewEventService(nil, "", nil, testLogger())

	channel, cleanup := svc.Subscribe()
	defer cleanup()

	svc.Publish(context.Background(), dto.Event{
		Type:    dto.EventProgressInvalidated,
		Payload: map[string]interface{}{"assignment_id": uint(7)},
	})

	select {
	case event := <-channel:
		require.Equal(t, dto.EventProgressInvalidated, event.Type)
		require.False(t, event.SentAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestEventServiceUnsubscribeClosesChannel(t *testing.T) {
	svc := NewEventService(nil, "", nil, testLogger())

	channel, cleanup := svc.Subscribe()
	cleanup()

	_, open := <-channel
	require.False(t, open)

	// Publishing after unsubscribe must not panic on the closed channel.
	svc.Publish(context.Background(), dto.Event{Type: dto.EventContentReordered})
}

func TestEventServiceFansOutOverRedis(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	publisher := NewEventService(redisClient, "classdesk", nil, testLogger())
	consumer := NewEventService(redisClient, "classdesk", nil, testLogger())
	consumer.Start(ctx)

	channel, cleanup := consumer.Subscribe()
	defer cleanup()

	// Subscription setup on the consumer side is asynchronous.
	require.Eventually(t, func() bool {
		publisher.Publish(ctx, dto.Event{Type: dto.EventSubscriptionChanged})
		select {
		case event := <-channel:
			return event.Type == dto.EventSubscriptionChanged
		default:
			return false
		}
	}, 2*time.Second, 50*time.Millisecond)
}

func TestEventServiceSkipsOwnEnvelope(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := NewEventService(redisClient, "classdesk", nil, testLogger())
	svc.Start(ctx)

	channel, cleanup := svc.Subscribe()
	defer cleanup()

	svc.Publish(ctx, dto.Event{Type: dto.EventProgressInvalidated})

	// Exactly one local delivery; the envelope echoed back through redis is
	// dropped by the source check.
	<-channel
	select {
	case event := <-channel:
		t.Fatalf("unexpected duplicate delivery: %s", event.Type)
	case <-time.After(200 * time.Millisecond):
	}
}
