package handlers

import (
	"lods/internal/services"

	"github.com/gofiber/fiber/v2"
)

// LocationHandler serves delivery-location lookups against the rate table.
type LocationHandler struct {
	locationService *services.LocationService
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(locationService *services.LocationService) *LocationHandler {
	return &LocationHandler{
		locationService: locationService,
	}
}

// RegisterRoutes registers the location routes.
func (h *LocationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/locations", h.HandleSearch)
}

// HandleSearch returns up to five locations matching the q parameter,
// each with its delivery fee.
func (h *LocationHandler) HandleSearch(c *fiber.Ctx) error {
	matches := h.locationService.Search(c.Query("q"))
	if matches == nil {
		matches = []services.LocationRate{}
	}
	return c.JSON(matches)
}
