package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/service"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/utils"
)

// ReportHandler serves the staff-facing assignment reports.
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

// Register attaches the report endpoints to the router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/assignments/:id", h.assignmentReport)
}

func (h *ReportHandler) assignmentReport(c *fiber.Ctx) error {
	assignmentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	report, err := h.service.AssignmentReport(c.Context(), sessionFromContext(c), assignmentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccessDenied):
			return sendAccessDenied(c, err)
		case errors.Is(err, service.ErrAssignmentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "report generated", report)
}
