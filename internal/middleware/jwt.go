package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/utils"
)

// JWTProtected validates HMAC-signed bearer tokens and publishes the
// caller's identity as user_id / user_role locals. Handlers build their
// session view from those locals; a request that reaches a handler
// without them is treated as unauthenticated, never as "still resolving".
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c.Get("Authorization"))
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "missing or malformed authorization header")
		}

		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		userID, role := identityFromClaims(claims)
		if userID == 0 || role == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "token carries no usable identity")
		}

		c.Locals("user_id", userID)
		c.Locals("user_role", role)

		return c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// identityFromClaims accepts the subject under sub, user_id or id, as a
// JSON number or a numeric string.
func identityFromClaims(claims jwt.MapClaims) (uint, string) {
	var userID uint
	for _, key := range []string{"sub", "user_id", "id"} {
		value, ok := claims[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case float64:
			if v > 0 {
				userID = uint(v)
			}
		case string:
			if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
				userID = uint(parsed)
			}
		}
		if userID != 0 {
			break
		}
	}

	role, _ := claims["role"].(string)
	return userID, strings.ToLower(strings.TrimSpace(role))
}
