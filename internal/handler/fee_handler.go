package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/repository"
	"github.com/codicoteam/school-management-backend/internal/service"
	"github.com/codicoteam/school-management-backend/internal/utils"
)

// FeeHandler wires fee record, payment and price list HTTP routes.
type FeeHandler struct {
	service service.FeeService
	access  StudentAccessAuthorizer
	logger  zerolog.Logger
}

// NewFeeHandler constructs the handler.
func NewFeeHandler(service service.FeeService, access StudentAccessAuthorizer, logger zerolog.Logger) *FeeHandler {
	return &FeeHandler{
		service: service,
		access:  access,
		logger:  logger.With().Str("component", "fee_handler").Logger(),
	}
}

// Register attaches fee endpoints to the router group. Statements are open to
// every authenticated role but students and parents only see their own; the
// ledger routes need the billing desk and deletion stays with admins.
func (h *FeeHandler) Register(router fiber.Router, billingDesk, adminOnly fiber.Handler) {
	router.Get("/statement/:ref", h.statement)
	router.Get("", billingDesk, h.list)
	router.Post("", billingDesk, h.create)
	router.Post("/payments", billingDesk, h.processPayment)
	router.Post("/report", billingDesk, h.report)
	router.Get("/:id", billingDesk, h.get)
	router.Patch("/:id", billingDesk, h.update)
	router.Delete("/:id", adminOnly, h.delete)
}

// RegisterStructures attaches the price list endpoints. Reads are open to
// every authenticated role; writes are administrative.
func (h *FeeHandler) RegisterStructures(router fiber.Router, adminOnly fiber.Handler) {
	router.Get("", h.listStructures)
	router.Post("", adminOnly, h.upsertStructure)
	router.Get("/:grade/:year", h.classStructures)
}

func (h *FeeHandler) list(c *fiber.Ctx) error {
	fees, err := h.service.List(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "fees retrieved", fees, len(fees))
}

func (h *FeeHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	fee, err := h.service.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "fee retrieved", fee)
}

func (h *FeeHandler) create(c *fiber.Ctx) error {
	var payload dto.FeeCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	fee, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "fee created", fee)
}

func (h *FeeHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.FeeUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	fee, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "fee updated", fee)
}

func (h *FeeHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "fee deleted", fiber.Map{"id": id})
}

func (h *FeeHandler) processPayment(c *fiber.Ctx) error {
	var payload dto.ManualPaymentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := h.service.ProcessPayment(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "payment recorded", receipt)
}

func (h *FeeHandler) statement(c *fiber.Ctx) error {
	ref := c.Params("ref")
	if err := ownStudentGuard(c, h.access, ref); err != nil {
		return h.handleError(c, err)
	}

	statement, err := h.service.Statement(c.Context(), ref)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "fee statement retrieved", statement)
}

func (h *FeeHandler) report(c *fiber.Ctx) error {
	var payload dto.FeeReportRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	report, err := h.service.Report(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "fee report generated", report)
}

func (h *FeeHandler) listStructures(c *fiber.Ctx) error {
	structures, err := h.service.ListStructures(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "fee structures retrieved", structures, len(structures))
}

func (h *FeeHandler) upsertStructure(c *fiber.Ctx) error {
	var payload dto.FeeStructureUpsertRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	structure, err := h.service.UpsertStructure(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "fee structure saved", structure)
}

func (h *FeeHandler) classStructures(c *fiber.Ctx) error {
	grade := strings.TrimSpace(c.Params("grade"))
	year := strings.TrimSpace(c.Params("year"))

	structures, err := h.service.ClassStructures(c.Context(), grade, year)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "fee structures retrieved", structures, len(structures))
}

func (h *FeeHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrFeeNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "fee record not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrFeeStructureNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotOwnRecord):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrFeeExists):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrVersionConflict):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrPaymentExceedsBalance):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidDate):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *FeeHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
