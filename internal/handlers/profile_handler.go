package handlers

import (
	"log"
	"time"

	"lods/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	authService *services.AuthService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(authService *services.AuthService) *ProfileHandler {
	return &ProfileHandler{
		authService: authService,
	}
}

// RegisterRoutes registers the profile routes with the Fiber app.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router) {
	profileRoutes := router.Group("/profile")
	profileRoutes.Get("/", h.HandleGetProfile)
	profileRoutes.Put("/", h.HandleUpdateProfile)
	profileRoutes.Post("/password", h.HandleChangePassword)
}

// HandleGetProfile returns the caller's stored profile.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	user, err := h.authService.GetProfile(userID)
	if err != nil {
		log.Printf("Error loading profile for %s: %v", userID, err)
		return fail(c, "Could not load profile", err)
	}
	user.Password = ""
	return c.JSON(user)
}

// UpdateProfileRequest represents the editable profile fields.
type UpdateProfileRequest struct {
	FullName  string `json:"full_name"`
	Address   string `json:"address"`
	ContactNo string `json:"contact_no"`
}

// HandleUpdateProfile updates the caller's name, address and contact number.
func (h *ProfileHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	user, err := h.authService.UpdateProfile(userID, req.FullName, req.Address, req.ContactNo)
	if err != nil {
		log.Printf("Error updating profile for %s: %v", userID, err)
		return fail(c, "Could not update profile", err)
	}
	user.Password = ""
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

// ChangePasswordRequest represents the request body for a password change.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// HandleChangePassword sets a new password. The session must be fresh;
// stale sessions are told to re-authenticate first.
func (h *ProfileHandler) HandleChangePassword(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	issuedAt, _ := c.Locals("issued_at").(time.Time)

	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.authService.ChangePassword(userID, req.NewPassword, issuedAt); err != nil {
		log.Printf("Error changing password for %s: %v", userID, err)
		return fail(c, "Could not change password", err)
	}
	return c.JSON(fiber.Map{
		"message": "Password changed successfully",
	})
}
