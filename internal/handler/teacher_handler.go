package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/service"
	"github.com/codicoteam/school-management-backend/internal/utils"
)

// TeacherHandler wires teacher record HTTP routes.
type TeacherHandler struct {
	service service.TeacherService
	logger  zerolog.Logger
}

// NewTeacherHandler constructs the handler.
func NewTeacherHandler(service service.TeacherService, logger zerolog.Logger) *TeacherHandler {
	return &TeacherHandler{
		service: service,
		logger:  logger.With().Str("component", "teacher_handler").Logger(),
	}
}

// Register attaches teacher endpoints to the router group. Class assignment
// is an administrative act and carries the extra guard.
func (h *TeacherHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id/class-fees", h.classFees)
	router.Get("/:id", h.get)
	router.Post("/:id/assign-class", adminOnly, h.assignClass)
}

func (h *TeacherHandler) list(c *fiber.Ctx) error {
	teachers, err := h.service.List(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "teachers retrieved", teachers, len(teachers))
}

func (h *TeacherHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	teacher, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "teacher retrieved", teacher)
}

func (h *TeacherHandler) assignClass(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignClassRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	teacher, err := h.service.AssignToClass(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "teacher assigned to class", teacher)
}

func (h *TeacherHandler) classFees(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	overview, err := h.service.ClassFees(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class fees retrieved", overview)
}

func (h *TeacherHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTeacherNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "teacher not found")
	case errors.Is(err, service.ErrNoAssignedClass):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *TeacherHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
