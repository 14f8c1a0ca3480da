package handlers

import (
	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *fiber.Ctx) error {
	caller, err := identity.Get(c)
	if err != nil {
		return RespondError(c, services.ErrNoToken)
	}

	users, err := h.userService.ListUsers(c.UserContext(), caller, c.Query("role"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(dto.OK(dto.NewUserList(users), ""))
}
