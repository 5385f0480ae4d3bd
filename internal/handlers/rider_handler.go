package handlers

import (
	"log"

	"lods/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RiderHandler handles manager requests for rider accounts.
type RiderHandler struct {
	riderService *services.RiderService
	validate     *validator.Validate
}

// NewRiderHandler creates a new RiderHandler.
func NewRiderHandler(riderService *services.RiderService) *RiderHandler {
	return &RiderHandler{
		riderService: riderService,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the rider management routes behind the given
// role guard.
func (h *RiderHandler) RegisterRoutes(router fiber.Router, guard fiber.Handler) {
	riderRoutes := router.Group("/riders")
	riderRoutes.Post("/", guard, h.HandleProvisionRider)
	riderRoutes.Get("/", guard, h.HandleGetRoster)
}

// HandleProvisionRider creates a rider account from the manager's input.
func (h *RiderHandler) HandleProvisionRider(c *fiber.Ctx) error {
	var input services.ProvisionRiderInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing rider request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return validationResponse(c, err)
	}

	rider, err := h.riderService.Provision(input)
	if err != nil {
		log.Printf("Error provisioning rider: %v", err)
		return fail(c, "Could not create rider", err)
	}

	rider.Password = ""
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Rider created successfully",
		"rider":   rider,
	})
}

// HandleGetRoster returns every registered rider.
func (h *RiderHandler) HandleGetRoster(c *fiber.Ctx) error {
	riders, err := h.riderService.Roster()
	if err != nil {
		log.Printf("Error getting rider roster: %v", err)
		return fail(c, "Could not retrieve riders", err)
	}
	for i := range riders {
		riders[i].Password = ""
	}
	return c.JSON(riders)
}
