package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/observability"
)

const eventBufferSize = 16

// EventService broadcasts typed invalidation events to connected teacher
// sessions, and fans them out across instances via Redis and NATS. This
// replaces ambient window-level listeners in the UI with an explicit bus
// with deterministic subscribe/unsubscribe lifecycle.
type EventService interface {
	Publish(ctx context.Context, event dto.Event)
	Subscribe() (<-chan dto.Event, func())
	Start(ctx context.Context)
}

type eventService struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
	broker       *eventBroker
	nodeID       string
}

type busEnvelope struct {
	Source string    `json:"source"`
	Event  dto.Event `json:"event"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[chan dto.Event]struct{}
}

// NewEventService constructs the invalidation event bus. Redis and NATS
// connections are optional; with neither, events stay instance-local.
func NewEventService(redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) EventService {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &eventService{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "event_service").Logger(),
		broker: &eventBroker{
			subscribers: make(map[chan dto.Event]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *eventService) Start(ctx context.Context) {
	if s.redis != nil && s.redisChannel != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

func (s *eventService) Publish(ctx context.Context, event dto.Event) {
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	s.broker.broadcast(event)
	observability.EventsPublished().WithLabelValues(event.Type).Inc()

	envelope := busEnvelope{Source: s.nodeID, Event: event}
	payload, err := json.Marshal(envelope)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode event envelope")
		return
	}

	if s.redis != nil && s.redisChannel != "" {
		if err := s.redis.Publish(ctx, s.redisChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish event to redis")
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish event to nats")
		}
	}
}

func (s *eventService) Subscribe() (<-chan dto.Event, func()) {
	channel := make(chan dto.Event, eventBufferSize)

	s.broker.subscribe(channel)
	observability.EventClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(channel)
		observability.EventClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *eventService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisChannel)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("event redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *eventService) consumeNATS(ctx context.Context) {
	// Plain subscription, not a queue group: every instance must see every
	// invalidation event to notify its own connected sessions.
	sub, err := s.nats.Subscribe(s.natsSubject, func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats events subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain nats event subscription")
		}
	}()
}

func (s *eventService) handleEnvelope(payload []byte) {
	var envelope busEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid event envelope payload")
		return
	}

	// Events published by this node were already broadcast locally.
	if envelope.Source == s.nodeID {
		return
	}

	s.broker.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(channel chan dto.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = struct{}{}
}

func (b *eventBroker) unsubscribe(channel chan dto.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subscribers[channel]; ok {
		delete(b.subscribers, channel)
		close(channel)
	}
}

func (b *eventBroker) broadcast(event dto.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for channel := range b.subscribers {
		select {
		case channel <- event:
		default:
			// Slow consumers drop events; the UI re-fetches on reconnect.
		}
	}
}
