package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/utils"
)

// RequireRole gates a route group on the user_role local set by
// JWTProtected. This is the coarse transport-level check; ownership and
// subject scoping are enforced again inside the services.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if r := strings.ToLower(strings.TrimSpace(role)); r != "" {
			allowed = append(allowed, r)
		}
	}

	return func(c *fiber.Ctx) error {
		current, _ := c.Locals("user_role").(string)
		current = strings.ToLower(strings.TrimSpace(current))
		for _, role := range allowed {
			if current == role {
				return c.Next()
			}
		}
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	}
}
