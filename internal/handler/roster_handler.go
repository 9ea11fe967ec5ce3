package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/dto"
	"github.com/classdesk/classdesk-api/internal/service"
	"github.com/classdesk/classdesk-api/internal/upstream"
	"github.com/classdesk/classdesk-api/internal/utils"
)

// RosterHandler applies assignment roster changes for one assignment scope.
type RosterHandler struct {
	service service.RosterMutationService
	logger  zerolog.Logger
}

// NewRosterHandler constructs the handler.
func NewRosterHandler(service service.RosterMutationService, logger zerolog.Logger) *RosterHandler {
	return &RosterHandler{
		service: service,
		logger:  logger.With().Str("component", "roster_handler").Logger(),
	}
}

// Register binds the roster mutation routes.
func (h *RosterHandler) Register(router fiber.Router) {
	router.Post("/students/:studentID", h.assign)
	router.Delete("/students/:studentID", h.unassign)
}

func (h *RosterHandler) assign(c *fiber.Ctx) error {
	classroomID, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.Assign(c.UserContext(), actorFromContext(c), classroomID, assignmentID, studentID)
	if err != nil {
		return h.sendMutationError(c, err)
	}

	return utils.SendSuccess(c, "student assigned", view)
}

func (h *RosterHandler) unassign(c *fiber.Ctx) error {
	classroomID, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var request dto.UnassignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&request); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
		}
	}

	view, err := h.service.Unassign(c.UserContext(), actorFromContext(c), classroomID, assignmentID, studentID, request.Confirmed)
	if err != nil {
		return h.sendMutationError(c, err)
	}

	return utils.SendSuccess(c, "student unassigned", view)
}

// sendMutationError maps the mutation error taxonomy onto responses:
// policy rejections carry their reasons verbatim and no retry hint, local
// guards explain what the caller must change, and upstream failures state
// that the optimistic change was reverted.
func (h *RosterHandler) sendMutationError(c *fiber.Ctx, err error) error {
	var protected *upstream.ProtectedError
	var status *upstream.StatusError

	switch {
	case errors.Is(err, service.ErrWorkAlreadyRecorded):
		return utils.SendWarning(c, "student has recorded work and cannot be unassigned", nil)
	case errors.Is(err, service.ErrConfirmationRequired):
		return utils.SendError(c, fiber.StatusConflict, "student has work in progress, confirmation required")
	case errors.Is(err, service.ErrViewNotLoaded):
		return utils.SendError(c, fiber.StatusConflict, "assignment view not loaded")
	case errors.Is(err, service.ErrStudentNotInRoster):
		return utils.SendError(c, fiber.StatusNotFound, "student not in roster")
	case errors.As(err, &protected):
		return utils.SendWarning(c, "change reverted, rejected by platform policy", protected.Reasons)
	case errors.As(err, &status):
		return utils.SendError(c, fiber.StatusBadGateway, "change reverted, platform request failed")
	default:
		h.logger.Error().Err(err).Msg("roster mutation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
