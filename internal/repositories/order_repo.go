package repositories

import (
	"lods/internal/models"
)

// OrderRepository defines the interface for order data access. Accept and
// UpdateStatus are conditional updates: they fail with models.ErrConflict
// when the order's current status no longer matches the expected one, so a
// losing caller is never able to silently overwrite a concurrent transition.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id string) (*models.Order, error)
	GetAll() ([]models.Order, error)
	GetByCustomer(customerID string) ([]models.Order, error)
	GetByStatus(status models.OrderStatus) ([]models.Order, error)
	GetByRider(riderID string, statuses []models.OrderStatus) ([]models.Order, error)

	// Accept atomically assigns a rider to a pending order. It returns
	// models.ErrNotFound if the order does not exist and models.ErrConflict
	// if the order is no longer pending.
	Accept(id, riderID, riderName string) error

	// UpdateStatus moves an order from one status to the next, failing with
	// models.ErrConflict unless the order is currently in the from status.
	UpdateStatus(id string, from, to models.OrderStatus) error

	// SavePricing persists the priced items and the derived totals while
	// moving the order from shopping to delivery, as one guarded update.
	SavePricing(order *models.Order) error
}
