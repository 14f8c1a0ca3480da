package middleware

import (
	"errors"

	"github.com/carebridge/portal-api/internal/handlers"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/metrics"
	"github.com/carebridge/portal-api/internal/services"
	"github.com/carebridge/portal-api/internal/token"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// RequireAuth is the auth gate. jwtware extracts the bearer token and checks
// its signature; the success handler then requires a live session and an
// active user, and stores the resolved identity in the request locals.
func RequireAuth(authService *services.AuthService, codec *token.Codec, rec metrics.Recorder) fiber.Handler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: codec.Key()},
		Claims:     &token.Claims{},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				rec.RecordAuthRejection("no_token")
				return handlers.RespondError(c, services.ErrNoToken)
			}
			rec.RecordAuthRejection("invalid_token")
			return handlers.RespondError(c, services.ErrInvalidToken)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			tok, ok := c.Locals("user").(*jwt.Token)
			if !ok || tok == nil {
				return handlers.RespondError(c, services.ErrInvalidToken)
			}
			id, err := authService.ResolveToken(c.UserContext(), tok.Raw)
			if err != nil {
				return handlers.RespondError(c, err)
			}
			identity.Set(c, id)
			return c.Next()
		},
	})
}
