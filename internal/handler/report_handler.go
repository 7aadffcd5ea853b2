package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codicoteam/school-management-backend/internal/service"
	"github.com/codicoteam/school-management-backend/internal/utils"
)

// ReportHandler wires the school-wide reporting routes.
type ReportHandler struct {
	service service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches reporting endpoints to the router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/statistics", h.statistics)
}

func (h *ReportHandler) statistics(c *fiber.Ctx) error {
	stats, err := h.service.SchoolStatistics(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "school statistics retrieved", stats)
}
