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

// ReviewHandler records grades and feedback for submissions.
type ReviewHandler struct {
	service service.ReviewService
	logger  zerolog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(service service.ReviewService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		logger:  logger.With().Str("component", "review_handler").Logger(),
	}
}

// Register binds the review route.
func (h *ReviewHandler) Register(router fiber.Router) {
	router.Post("/students/:studentID/review", h.review)
}

func (h *ReviewHandler) review(c *fiber.Ctx) error {
	classroomID, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var request dto.ReviewRequest
	if err := c.BodyParser(&request); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	response, err := h.service.Review(c.UserContext(), actorFromContext(c), classroomID, assignmentID, studentID, request)
	if err != nil {
		var protected *upstream.ProtectedError
		var status *upstream.StatusError
		var validationErrors validator.ValidationErrors

		switch {
		case errors.As(err, &validationErrors):
			return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
		case errors.As(err, &protected):
			return utils.SendWarning(c, "review rejected by platform policy", protected.Reasons)
		case errors.As(err, &status):
			return utils.SendError(c, fiber.StatusBadGateway, "platform request failed")
		default:
			h.logger.Error().Err(err).Msg("review submission failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "review recorded", response)
}
