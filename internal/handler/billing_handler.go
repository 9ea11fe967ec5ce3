package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/models"
	"github.com/classdesk/classdesk-api/internal/service"
	"github.com/classdesk/classdesk-api/internal/upstream"
	"github.com/classdesk/classdesk-api/internal/utils"
)

// BillingHandler exposes the subscription passthrough.
type BillingHandler struct {
	service service.BillingService
	logger  zerolog.Logger
}

// NewBillingHandler constructs the handler.
func NewBillingHandler(service service.BillingService, logger zerolog.Logger) *BillingHandler {
	return &BillingHandler{
		service: service,
		logger:  logger.With().Str("component", "billing_handler").Logger(),
	}
}

// Register binds the billing routes.
func (h *BillingHandler) Register(router fiber.Router) {
	router.Get("/subscription", h.subscription)
	router.Post("/subscription/refresh", h.refresh)
}

func (h *BillingHandler) subscription(c *fiber.Ctx) error {
	subscription, err := h.service.GetSubscription(c.UserContext())
	if err != nil {
		return h.sendBillingError(c, err)
	}
	return utils.SendSuccess(c, subscriptionMessage(subscription, "subscription retrieved"), subscription)
}

func (h *BillingHandler) refresh(c *fiber.Ctx) error {
	subscription, err := h.service.Refresh(c.UserContext())
	if err != nil {
		return h.sendBillingError(c, err)
	}
	return utils.SendSuccess(c, subscriptionMessage(subscription, "subscription refreshed"), subscription)
}

// subscriptionMessage flags lapsed plans in the envelope so the UI can
// surface the entitlement state without inspecting the payload.
func subscriptionMessage(subscription models.Subscription, active string) string {
	if !subscription.IsActive() {
		return "subscription inactive"
	}
	return active
}

func (h *BillingHandler) sendBillingError(c *fiber.Ctx, err error) error {
	var status *upstream.StatusError
	if errors.As(err, &status) {
		return utils.SendError(c, fiber.StatusBadGateway, "platform request failed")
	}
	h.logger.Error().Err(err).Msg("subscription lookup failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
