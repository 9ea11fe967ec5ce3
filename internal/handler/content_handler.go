package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/service"
	"github.com/classdesk/classdesk-api/internal/upstream"
	"github.com/classdesk/classdesk-api/internal/utils"
)

// ContentHandler lists and reorders assignment contents.
type ContentHandler struct {
	service   service.ContentService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewContentHandler constructs the handler.
func NewContentHandler(service service.ContentService, validator *validator.Validate, logger zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "content_handler").Logger(),
	}
}

// Register binds the content routes.
func (h *ContentHandler) Register(router fiber.Router) {
	router.Get("/contents", h.list)
	router.Patch("/contents/order", h.reorder)
}

func (h *ContentHandler) list(c *fiber.Ctx) error {
	_, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	items, err := h.service.List(c.UserContext(), assignmentID)
	if err != nil {
		return h.sendContentError(c, err)
	}

	return utils.SendSuccess(c, "contents retrieved", items)
}

func (h *ContentHandler) reorder(c *fiber.Ctx) error {
	_, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var request dto.ReorderRequest
	if err := c.BodyParser(&request); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validator.Struct(request); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	items, err := h.service.Reorder(c.UserContext(), actorFromContext(c), assignmentID, request.FromIndex, request.ToIndex)
	if err != nil {
		if errors.Is(err, service.ErrIndexOutOfRange) {
			return utils.SendError(c, fiber.StatusBadRequest, "content index out of range")
		}
		return h.sendContentError(c, err)
	}

	return utils.SendSuccess(c, "contents reordered", items)
}

func (h *ContentHandler) sendContentError(c *fiber.Ctx, err error) error {
	var protected *upstream.ProtectedError
	var status *upstream.StatusError

	switch {
	case errors.As(err, &protected):
		return utils.SendWarning(c, "order restored, rejected by platform policy", protected.Reasons)
	case errors.As(err, &status):
		return utils.SendError(c, fiber.StatusBadGateway, "platform request failed")
	default:
		h.logger.Error().Err(err).Msg("content operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
