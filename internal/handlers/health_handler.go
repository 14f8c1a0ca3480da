package handlers

import (
	"context"
	"time"

	"github.com/carebridge/portal-api/internal/database"
	"github.com/carebridge/portal-api/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, dbStatus := "ok", "ok"
	code := fiber.StatusOK
	if err := database.Ping(ctx, h.db); err != nil {
		status, dbStatus = "degraded", "unhealthy"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(dto.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
