package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

const localsKey = "identity"

var ErrNoIdentity = errors.New("no identity in request context")

// Set stores the resolved identity in fiber locals.
func Set(c *fiber.Ctx, id *Identity) {
	c.Locals(localsKey, id)
}

// Get extracts the identity stored by the auth middleware.
func Get(c *fiber.Ctx) (*Identity, error) {
	id, ok := c.Locals(localsKey).(*Identity)
	if !ok || id == nil {
		return nil, ErrNoIdentity
	}
	return id, nil
}
