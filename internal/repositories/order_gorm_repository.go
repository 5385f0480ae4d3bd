package repositories

import (
	"fmt"

	"lods/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Create inserts a new order together with its items.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if err := r.db.Create(order).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetAll retrieves every order, newest first (master list view).
func (r *GORMOrderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Preload("Items").Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}
	return orders, nil
}

// GetByCustomer retrieves a customer's orders, newest first.
func (r *GORMOrderRepository) GetByCustomer(customerID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for customer %s: %w", customerID, err)
	}
	return orders, nil
}

// GetByStatus retrieves all orders currently in the given status (the
// riders' "available orders" feed queries for pending).
func (r *GORMOrderRepository) GetByStatus(status models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("status = ?", status).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders with status %s: %w", status, err)
	}
	return orders, nil
}

// GetByRider retrieves a rider's orders restricted to the given statuses.
func (r *GORMOrderRepository) GetByRider(riderID string, statuses []models.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("rider_id = ? AND status IN ?", riderID, statuses).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for rider %s: %w", riderID, err)
	}
	return orders, nil
}

// Accept assigns a rider to a pending order with a single conditional
// update. Two riders racing for the same order cannot both succeed: the
// second update matches zero rows and the caller gets ErrConflict.
func (r *GORMOrderRepository) Accept(id, riderID, riderName string) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, models.StatusPending).
		Updates(map[string]interface{}{
			"status":     models.StatusAccepted,
			"rider_id":   riderID,
			"rider_name": riderName,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to accept order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(id, "accept")
	}
	return nil
}

// UpdateStatus moves an order from one status to the next with a guarded
// update; a stale caller gets ErrConflict instead of overwriting.
func (r *GORMOrderRepository) UpdateStatus(id string, from, to models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return fmt.Errorf("failed to update status of order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missOrConflict(id, "update status of")
	}
	return nil
}

// SavePricing persists the priced items and the derived totals while moving
// the order from shopping to delivery, in one transaction. The totals are
// written exactly once; any later attempt fails the status guard.
func (r *GORMOrderRepository) SavePricing(order *models.Order) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.StatusShopping).
			Updates(map[string]interface{}{
				"status":           models.StatusDelivery,
				"total_items_bill": order.TotalItemsBill,
				"final_total":      order.FinalTotal,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to save pricing for order %s: %w", order.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return r.missOrConflict(order.ID, "save pricing for")
		}
		for _, item := range order.Items {
			err := tx.Model(&models.OrderItem{}).
				Where("id = ? AND order_id = ?", item.ID, order.ID).
				Updates(map[string]interface{}{
					"unit_price": item.UnitPrice,
					"subtotal":   item.Subtotal,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to save pricing for item %d of order %s: %w", item.ID, order.ID, err)
			}
		}
		return nil
	})
}

// missOrConflict distinguishes a vanished order from one whose status moved
// under the caller.
func (r *GORMOrderRepository) missOrConflict(id, action string) error {
	var count int64
	if err := r.db.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to %s order %s: %w", action, id, err)
	}
	if count == 0 {
		return fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	return fmt.Errorf("order %s is no longer in the expected status: %w", id, models.ErrConflict)
}
