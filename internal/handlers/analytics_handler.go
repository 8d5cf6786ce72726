package handlers

import (
	"log"

	"pustaka/internal/services"

	"github.com/gofiber/fiber/v2"
)

// AnalyticsHandler serves the admin dashboard aggregates.
type AnalyticsHandler struct {
	analytics *services.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		analytics: analytics,
	}
}

// RegisterRoutes registers the analytics routes with the Fiber app.
func (h *AnalyticsHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/analytics", h.HandleGetAnalytics)
}

// HandleGetAnalytics returns the dashboard numbers.
func (h *AnalyticsHandler) HandleGetAnalytics(c *fiber.Ctx) error {
	data, err := h.analytics.GetAnalytics(c.UserContext())
	if err != nil {
		log.Printf("Error gathering analytics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not gather analytics",
			"error":   err.Error(),
		})
	}
	return c.JSON(data)
}
