package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/classdesk/classdesk-api/internal/service"
	"github.com/classdesk/classdesk-api/internal/utils"
)

// AssignmentViewHandler serves the aggregated assignment view and the
// per-student progress stepper.
type AssignmentViewHandler struct {
	service service.AssignmentViewService
	logger  zerolog.Logger
}

// NewAssignmentViewHandler constructs the handler.
func NewAssignmentViewHandler(service service.AssignmentViewService, logger zerolog.Logger) *AssignmentViewHandler {
	return &AssignmentViewHandler{
		service: service,
		logger:  logger.With().Str("component", "view_handler").Logger(),
	}
}

// Register binds the view routes under one assignment scope.
func (h *AssignmentViewHandler) Register(router fiber.Router) {
	router.Get("/", h.view)
	router.Post("/refresh", h.refresh)
	router.Get("/students/:studentID/stepper", h.stepper)
}

func (h *AssignmentViewHandler) view(c *fiber.Ctx) error {
	classroomID, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.GetView(c.UserContext(), classroomID, assignmentID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentUnavailable) {
			return utils.SendError(c, fiber.StatusBadGateway, "assignment unavailable")
		}
		h.logger.Error().Err(err).Msg("failed to resolve assignment view")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	message := "assignment view resolved"
	if view.Degraded {
		message = "assignment view resolved without progress data"
	}
	return utils.SendSuccess(c, message, view)
}

func (h *AssignmentViewHandler) refresh(c *fiber.Ctx) error {
	classroomID, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := h.service.Refresh(c.UserContext(), classroomID, assignmentID)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentUnavailable) {
			return utils.SendError(c, fiber.StatusBadGateway, "assignment unavailable")
		}
		h.logger.Error().Err(err).Msg("failed to refresh assignment view")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "assignment view refreshed", view)
}

func (h *AssignmentViewHandler) stepper(c *fiber.Ctx) error {
	classroomID, assignmentID, err := viewScope(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	stepper, err := h.service.GetStepper(c.UserContext(), classroomID, assignmentID, studentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotInRoster):
			return utils.SendError(c, fiber.StatusNotFound, "student not in roster")
		case errors.Is(err, service.ErrAssignmentUnavailable):
			return utils.SendError(c, fiber.StatusBadGateway, "assignment unavailable")
		default:
			h.logger.Error().Err(err).Msg("failed to resolve stepper")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "stepper resolved", stepper)
}

func viewScope(c *fiber.Ctx) (uint, uint, error) {
	classroomID, err := parseUintParam(c, "classroomID")
	if err != nil {
		return 0, 0, err
	}
	assignmentID, err := parseUintParam(c, "assignmentID")
	if err != nil {
		return 0, 0, err
	}
	return classroomID, assignmentID, nil
}
