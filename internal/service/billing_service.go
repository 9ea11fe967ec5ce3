package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/observability"
)

const subscriptionCacheKey = "billing:subscription"

// UpstreamBillingAPI is the billing surface of the platform API.
type UpstreamBillingAPI interface {
	GetSubscription(ctx context.Context) (models.Subscription, error)
}

// BillingService passes the normalized subscription state through to the
// UI and announces plan changes to connected sessions.
type BillingService interface {
	GetSubscription(ctx context.Context) (models.Subscription, error)
	Refresh(ctx context.Context) (models.Subscription, error)
}

type billingService struct {
	upstream UpstreamBillingAPI
	cache    *redis.Client
	cacheTTL time.Duration
	events   EventService
	logger   zerolog.Logger
}

// NewBillingService builds the subscription passthrough. The cache client
// may be nil; every read then goes upstream.
func NewBillingService(api UpstreamBillingAPI, cache *redis.Client, ttl time.Duration, events EventService, logger zerolog.Logger) BillingService {
	return &billingService{
		upstream: api,
		cache:    cache,
		cacheTTL: ttl,
		events:   events,
		logger:   logger.With().Str("component", "billing_service").Logger(),
	}
}

func (s *billingService) GetSubscription(ctx context.Context) (models.Subscription, error) {
	if cached, ok := s.readCache(ctx); ok {
		return cached, nil
	}

	subscription, err := s.upstream.GetSubscription(ctx)
	if err != nil {
		observability.UpstreamFailures().WithLabelValues("subscription").Inc()
		return models.Subscription{}, err
	}

	s.writeCache(ctx, subscription)
	return subscription, nil
}

// Refresh bypasses the cache and, when the plan or status changed against
// the cached value, notifies connected sessions so open pages re-check
// their entitlements.
func (s *billingService) Refresh(ctx context.Context) (models.Subscription, error) {
	previous, hadPrevious := s.readCache(ctx)

	subscription, err := s.upstream.GetSubscription(ctx)
	if err != nil {
		observability.UpstreamFailures().WithLabelValues("subscription").Inc()
		return models.Subscription{}, err
	}

	s.writeCache(ctx, subscription)

	if hadPrevious && s.events != nil {
		if previous.Plan != subscription.Plan || previous.Status != subscription.Status {
			s.events.Publish(ctx, dto.Event{
				Type: dto.EventSubscriptionChanged,
				Payload: map[string]interface{}{
					"plan":   subscription.Plan,
					"status": subscription.Status,
				},
			})
		}
	}

	return subscription, nil
}

func (s *billingService) readCache(ctx context.Context) (models.Subscription, bool) {
	if s.cache == nil {
		return models.Subscription{}, false
	}

	payload, err := s.cache.Get(ctx, subscriptionCacheKey).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read subscription cache")
		}
		return models.Subscription{}, false
	}

	var subscription models.Subscription
	if err := json.Unmarshal([]byte(payload), &subscription); err != nil {
		return models.Subscription{}, false
	}
	return subscription, true
}

func (s *billingService) writeCache(ctx context.Context, subscription models.Subscription) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(subscription)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, subscriptionCacheKey, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store subscription cache")
	}
}
