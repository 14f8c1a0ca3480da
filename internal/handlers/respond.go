package handlers

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/services"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{services.ErrNoToken, fiber.StatusUnauthorized},
	{services.ErrInvalidToken, fiber.StatusUnauthorized},
	{services.ErrSessionExpired, fiber.StatusUnauthorized},
	{services.ErrInvalidCredentials, fiber.StatusUnauthorized},
	{services.ErrAccountDeactivated, fiber.StatusUnauthorized},
	{services.ErrSecondFactorRequired, fiber.StatusUnauthorized},
	{services.ErrSecondFactorInvalid, fiber.StatusUnauthorized},
	{services.ErrForbidden, fiber.StatusForbidden},
	{services.ErrUserNotFound, fiber.StatusNotFound},
	{services.ErrRecordNotFound, fiber.StatusNotFound},
	{services.ErrEmailTaken, fiber.StatusBadRequest},
	{services.ErrTooManyAttempts, fiber.StatusTooManyRequests},
}

// RespondError writes the error envelope for err. Known service errors keep
// their message; anything else becomes a 500 and is logged and reported.
func RespondError(c *fiber.Ctx, err error) error {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.Fail(verr.Error()))
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			// The sentinel's own text; wrapped detail stays server-side.
			return c.Status(e.status).JSON(dto.Fail(sentence(e.err.Error())))
		}
	}

	slog.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"request_id", requestID(c),
		"error", err.Error(),
	)
	if hub := sentryfiber.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.Fail("Internal server error"))
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.Fail("Validation error: invalid request body"))
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

func sentence(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
