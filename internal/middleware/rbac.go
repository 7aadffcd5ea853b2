package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/codicoteam/school-management-backend/internal/utils"
)

// RequireRole limits a route to the given school roles (models.RoleAdmin,
// models.RoleReceptionist, ...). It reads the role JWTProtected stored in the
// locals; requests without a role, or with one outside the set, are refused.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		if normalized := strings.ToLower(strings.TrimSpace(role)); normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(localUserRole).(string)
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
