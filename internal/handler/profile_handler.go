package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/service"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/utils"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(service service.ProfileService, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("component", "profile_handler").Logger(),
	}
}

// Register attaches the profile endpoints to the router group.
func (h *ProfileHandler) Register(router fiber.Router) {
	router.Get("/me", h.me)
}

func (h *ProfileHandler) me(c *fiber.Ctx) error {
	profile, err := h.service.Current(c.Context(), sessionFromContext(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAccessDenied):
			return sendAccessDenied(c, err)
		case errors.Is(err, service.ErrProfileNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "profile not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}
