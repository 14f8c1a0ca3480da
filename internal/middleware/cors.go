package middleware

import (
	"github.com/carebridge/portal-api/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, OPTIONS",
		ExposeHeaders:    "X-Request-ID",
		AllowCredentials: false,
	})
}

// SecurityHeaders sets the response headers every portal response carries.
// Responses may hold patient data, so nothing is cached.
func SecurityHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.Next()
	}
}
