package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/service"
	"github.com/codicoteam/school-management-backend/internal/utils"
)

// PaymentHandler wires gateway payment HTTP routes.
type PaymentHandler struct {
	service service.PaymentService
	logger  zerolog.Logger
}

// NewPaymentHandler constructs the handler.
func NewPaymentHandler(service service.PaymentService, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		logger:  logger.With().Str("component", "payment_handler").Logger(),
	}
}

// Register attaches gateway payment endpoints to the router group. The
// school-wide transaction listing carries the extra admin guard.
func (h *PaymentHandler) Register(router fiber.Router, adminOnly fiber.Handler) {
	router.Post("/initiate", h.initiate)
	router.Get("/status/:reference", h.checkStatus)
	router.Post("/cancel/:reference", h.cancel)
	router.Get("/transactions/student/:ref", h.listByStudent)
	router.Get("/transactions", adminOnly, h.listAll)
}

// RegisterWebhook attaches the provider callback outside the auth guard; the
// provider does not carry a bearer token.
func (h *PaymentHandler) RegisterWebhook(router fiber.Router) {
	router.Post("/webhook", h.webhook)
}

func (h *PaymentHandler) guardOwnStudent(c *fiber.Ctx, studentRef string) error {
	return ownStudentGuard(c, h.service, studentRef)
}

func (h *PaymentHandler) initiate(c *fiber.Ctx) error {
	var payload dto.InitiatePaymentRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	if err := h.guardOwnStudent(c, payload.Student); err != nil {
		return h.handleError(c, err)
	}

	session, err := h.service.Initiate(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "payment initiated", session)
}

func (h *PaymentHandler) checkStatus(c *fiber.Ctx) error {
	status, err := h.service.CheckStatus(c.Context(), c.Params("reference"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payment status retrieved", status)
}

// webhook always acknowledges with 200 so the provider stops retrying;
// failures are surfaced through logs, not the response.
func (h *PaymentHandler) webhook(c *fiber.Ctx) error {
	var payload dto.WebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("unparseable webhook payload")
		return utils.SendSuccess(c, "webhook received", nil)
	}

	result, err := h.service.HandleWebhook(c.Context(), payload)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Str("reference", payload.Reference).Msg("webhook processing failed")
		return utils.SendSuccess(c, "webhook received", nil)
	}

	return utils.SendSuccess(c, "webhook processed", result)
}

func (h *PaymentHandler) cancel(c *fiber.Ctx) error {
	transaction, err := h.service.Cancel(c.Context(), c.Params("reference"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "payment cancelled", transaction)
}

func (h *PaymentHandler) listAll(c *fiber.Ctx) error {
	transactions, err := h.service.ListAllTransactions(c.Context())
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendList(c, "transactions retrieved", transactions, len(transactions))
}

func (h *PaymentHandler) listByStudent(c *fiber.Ctx) error {
	if err := h.guardOwnStudent(c, c.Params("ref")); err != nil {
		return h.handleError(c, err)
	}

	transactions, err := h.service.ListStudentTransactions(c.Context(), c.Params("ref"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendList(c, "transactions retrieved", transactions, len(transactions))
}

func (h *PaymentHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrTransactionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "payment transaction not found")
	case errors.Is(err, service.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, service.ErrNoPollURL):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCannotCancel):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotOwnRecord):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrGatewayUnavailable):
		return utils.SendError(c, fiber.StatusBadGateway, err.Error())
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	default:
		return h.internalError(c, err)
	}
}

func (h *PaymentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
