package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/dto"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/service"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/utils"
)

// RunHandler exposes ad-hoc code execution for the editor.
type RunHandler struct {
	service service.RunService
	logger  zerolog.Logger
}

// NewRunHandler constructs the handler.
func NewRunHandler(service service.RunService, logger zerolog.Logger) *RunHandler {
	return &RunHandler{
		service: service,
		logger:  logger.With().Str("component", "run_handler").Logger(),
	}
}

// Register attaches the run endpoints to the router group.
func (h *RunHandler) Register(router fiber.Router) {
	router.Post("", h.run)
	router.Get("/:id/history", h.history)
}

func (h *RunHandler) run(c *fiber.Ctx) error {
	var payload dto.RunRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Run(c.Context(), sessionFromContext(c), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "code executed", result)
}

func (h *RunHandler) history(c *fiber.Ctx) error {
	submissionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	runs, err := h.service.History(c.Context(), sessionFromContext(c), submissionID, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "run history retrieved", runs)
}

func (h *RunHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrAccessDenied):
		return sendAccessDenied(c, err)
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrRunUnsupportedLanguage):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "language is not supported")
	case errors.Is(err, context.Canceled):
		// Client is gone; the status code is a formality.
		return utils.SendError(c, fiber.StatusRequestTimeout, "request cancelled")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
