package models_test

import (
	"testing"

	"lods/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from    models.OrderStatus
		to      models.OrderStatus
		allowed bool
	}{
		{models.StatusPending, models.StatusAccepted, true},
		{models.StatusAccepted, models.StatusShopping, true},
		{models.StatusShopping, models.StatusDelivery, true},
		{models.StatusDelivery, models.StatusCompleted, true},

		// No skipping ahead.
		{models.StatusPending, models.StatusShopping, false},
		{models.StatusAccepted, models.StatusDelivery, false},
		{models.StatusShopping, models.StatusCompleted, false},

		// No backward edges.
		{models.StatusAccepted, models.StatusPending, false},
		{models.StatusDelivery, models.StatusShopping, false},

		// Completed is terminal.
		{models.StatusCompleted, models.StatusPending, false},
		{models.StatusCompleted, models.StatusCompleted, false},

		// Unknown states never transition.
		{"cancelled", models.StatusPending, false},
		{models.StatusPending, "cancelled", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, models.CanTransition(tc.from, tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range []models.OrderStatus{
		models.StatusPending, models.StatusAccepted, models.StatusShopping,
		models.StatusDelivery, models.StatusCompleted,
	} {
		assert.True(t, models.IsValidStatus(s), string(s))
	}
	assert.False(t, models.IsValidStatus("cancelled"))
	assert.False(t, models.IsValidStatus(""))
}
