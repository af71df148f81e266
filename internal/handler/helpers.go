package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/middleware"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/service"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/utils"
)

// sessionFromContext builds the guard session from the JWT locals. A
// request that never passed the JWT middleware is unauthenticated, not
// resolving: by the time a handler runs, identity resolution is done.
func sessionFromContext(c *fiber.Ctx) guard.Session {
	id := userIDFromContext(c)
	role := userRoleFromContext(c)
	if id == 0 || role == "" {
		return guard.Unauthenticated()
	}
	return guard.Authenticated(guard.Actor{ID: id, Role: role})
}

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if v := c.Locals("user_role"); v != nil {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

func parseUintParam(c *fiber.Ctx, key string) (uint, error) {
	value := c.Params(key)
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return uint(parsed), nil
}

func parseQueryUint(c *fiber.Ctx, key string) (*uint, error) {
	value := c.Query(key)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + key)
	}
	result := uint(parsed)
	return &result, nil
}

func parseQueryInt(c *fiber.Ctx, key string) (int, error) {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return parsed, nil
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := base
	if c != nil {
		if correlation := middleware.GetCorrelationID(c); correlation != "" {
			logger = base.With().Str("correlation_id", correlation).Logger()
		}
	}
	return &logger
}

// sendAccessDenied maps guard denial reasons onto HTTP statuses. A
// still-resolving session must never be treated as a hard rejection.
func sendAccessDenied(c *fiber.Ctx, err error) error {
	var denial *service.AccessDeniedError
	if !errors.As(err, &denial) {
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	}

	switch denial.Reason {
	case guard.ReasonSessionResolving:
		c.Set("Retry-After", "1")
		return utils.SendError(c, fiber.StatusServiceUnavailable, "session still resolving, retry")
	case guard.ReasonUnauthenticated:
		return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
	case guard.ReasonNotFound:
		return utils.SendError(c, fiber.StatusNotFound, "resource not found")
	default:
		return utils.SendError(c, fiber.StatusForbidden, "access denied")
	}
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
