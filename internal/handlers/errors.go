package handlers

import (
	"errors"

	"lods/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusForError maps the domain error sentinels to HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, models.ErrAuth):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrRequiresRecentLogin):
		return fiber.StatusUnauthorized
	case errors.Is(err, models.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, models.ErrConflict):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// fail writes the standard error envelope for a failed operation.
func fail(c *fiber.Ctx, message string, err error) error {
	return c.Status(statusForError(err)).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
