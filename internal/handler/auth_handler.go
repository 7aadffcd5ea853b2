package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/dto"
	"github.com/codicoteam/school-management-backend/internal/service"
	"github.com/codicoteam/school-management-backend/internal/utils"
)

// AuthHandler wires registration, login and profile routes.
type AuthHandler struct {
	service service.AuthService
	logger  zerolog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service service.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches the public auth endpoints to the router group.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/login", h.login)
}

// RegisterProtected attaches the endpoints that require a bearer token.
// Account creation is an administrative action; there is no self sign-up.
func (h *AuthHandler) RegisterProtected(router fiber.Router, auth, adminOnly fiber.Handler) {
	router.Post("/register", auth, adminOnly, h.register)
	router.Get("/me", auth, h.profile)
}

func (h *AuthHandler) register(c *fiber.Ctx) error {
	var payload dto.RegisterRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Register(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserExists):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "user registered", result)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Login(c.Context(), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return utils.SendError(c, fiber.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrAccountDisabled):
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendSuccess(c, "login successful", result)
}

func (h *AuthHandler) profile(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	profile, err := h.service.Profile(c.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *AuthHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
