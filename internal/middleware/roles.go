package middleware

import (
	"github.com/carebridge/portal-api/internal/handlers"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

// RequireRole admits callers holding any of roles. It must run after
// RequireAuth.
func RequireRole(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := identity.Get(c)
		if err != nil {
			return handlers.RespondError(c, services.ErrNoToken)
		}
		if !id.HasRole(roles...) {
			return handlers.RespondError(c, services.ErrForbidden)
		}
		return c.Next()
	}
}
