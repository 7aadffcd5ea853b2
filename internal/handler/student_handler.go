package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/service"
	"github.com/codicoteam/school-management-backend/internal/utils"
)

// StudentHandler wires student record HTTP routes.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student endpoints to the router group. Class moves and
// deletion are administrative and carry the extra guard.
func (h *StudentHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/search", h.search)
	router.Get("/class/:grade/:class", h.listByClass)
	router.Patch("/:ref/class", adminOnly, h.changeClass)
	router.Get("/:ref", h.get)
	router.Patch("/:ref", h.update)
	router.Delete("/:ref", adminOnly, h.delete)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	students, err := h.service.List(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "students retrieved", students, len(students))
}

func (h *StudentHandler) search(c *fiber.Ctx) error {
	name := strings.TrimSpace(c.Query("name"))
	if name == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "name query parameter is required")
	}

	students, err := h.service.Search(c.Context(), name)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "students retrieved", students, len(students))
}

func (h *StudentHandler) listByClass(c *fiber.Ctx) error {
	students, err := h.service.ListByClass(c.Context(), c.Params("grade"), c.Params("class"))
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "students retrieved", students, len(students))
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.service.Get(c.Context(), c.Params("ref"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) update(c *fiber.Ctx) error {
	var payload dto.StudentUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.Update(c.Context(), c.Params("ref"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student updated", student)
}

func (h *StudentHandler) changeClass(c *fiber.Ctx) error {
	var payload dto.ChangeClassRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	student, err := h.service.ChangeClass(c.Context(), c.Params("ref"), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student class updated", student)
}

func (h *StudentHandler) delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.Context(), c.Params("ref")); err != nil {
		if errors.Is(err, service.ErrStudentHasRecords) {
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		}
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "student deleted", fiber.Map{"ref": c.Params("ref")})
}

func (h *StudentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *StudentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
