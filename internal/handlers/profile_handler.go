package handlers

import (
	"github.com/carebridge/portal-api/internal/dto"
	"github.com/carebridge/portal-api/internal/identity"
	"github.com/carebridge/portal-api/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ProfileHandler struct {
	profileService *services.ProfileService
}

func NewProfileHandler(profileService *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	caller, err := identity.Get(c)
	if err != nil {
		return RespondError(c, services.ErrNoToken)
	}

	var req dto.ProfileUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}

	updated, err := h.profileService.UpdateProviderProfile(c.UserContext(), caller, &req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(dto.OK(dto.NewUserResponse(updated), "Profile updated successfully"))
}
