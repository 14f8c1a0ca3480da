package handlers

import (
	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	res, err := h.authService.Login(c.UserContext(), &req, services.SessionMeta{
		UserAgent: c.Get(fiber.HeaderUserAgent),
		IPAddress: c.IP(),
	})
	if err != nil {
		return RespondError(c, err)
	}

	return c.JSON(dto.OK(dto.LoginResponse{
		User:      dto.NewUserResponse(res.Identity),
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	}, "Login successful"))
}

// Logout revokes the session behind the request's bearer token. It does not
// run the full auth gate, so an expired or already revoked token still logs
// out cleanly.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), c.Get(fiber.HeaderAuthorization)); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(dto.OK(nil, "Logged out successfully"))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := identity.Get(c)
	if err != nil {
		return RespondError(c, services.ErrNoToken)
	}
	return c.JSON(dto.OK(dto.NewUserResponse(id), ""))
}
