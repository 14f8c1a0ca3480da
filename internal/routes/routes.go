package routes

import (
	"errors"
	"log/slog"
	"time"

	"github.com/carebridge/portal-api/internal/config"
	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/handlers"
	"github.com/carebridge/portal-api/internal/middleware"
	"github.com/carebridge/portal-api/internal/models"
	"github.com/carebridge/portal-api/internal/report"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Profile *handlers.ProfileHandler
	User    *handlers.UserHandler
	Report  *handlers.ReportHandler
	Health  *handlers.HealthHandler
	Metrics fiber.Handler
}

// NewApp creates the fiber app with the report views and the envelope error
// handler. Middleware and routes are added by Setup.
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      "carebridge-portal",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: ErrorHandler,
		Views:        report.NewEngine(),
	})
}

func Setup(app *fiber.App, cfg *config.Config, requireAuth fiber.Handler, h Handlers) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// General rate limiter: 60 req/min per IP
	app.Use(newLimiter(60))

	app.Get("/health", h.Health.Check)
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}

	// Auth: stricter per-IP limit on top of the per-email login throttle
	auth := app.Group("/auth")
	auth.Post("/login", newLimiter(10), h.Auth.Login)
	auth.Post("/logout", h.Auth.Logout)
	auth.Get("/me", requireAuth, h.Auth.Me)

	app.Put("/profile", requireAuth, middleware.RequireRole(models.RoleProvider), h.Profile.Update)
	app.Get("/users", requireAuth, middleware.RequireRole(models.RoleProvider, models.RoleAdmin), h.User.List)
	app.Post("/medical-records/:id/report", requireAuth, middleware.RequireRole(models.RoleProvider, models.RoleAdmin), h.Report.Generate)
}

func newLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               max,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.Fail("Too many requests, try again later"))
		},
	})
}

// ErrorHandler renders errors that escape the handlers, such as unknown
// routes or oversized bodies, in the standard envelope.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(dto.Fail(message))
}
