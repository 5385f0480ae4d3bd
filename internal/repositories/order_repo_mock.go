package repositories

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"lods/internal/models"

	"github.com/google/uuid"
)

// MockOrderRepository is an in-memory implementation of OrderRepository.
// It mirrors the conditional-update semantics of the GORM implementation so
// tests exercise the same Conflict behavior.
type MockOrderRepository struct {
	orders map[string]models.Order
	mu     sync.RWMutex
}

// NewMockOrderRepository creates a new instance of MockOrderRepository.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]models.Order),
	}
}

// Create adds a new order.
func (r *MockOrderRepository) Create(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = time.Now()
	r.orders[order.ID] = *order
	return nil
}

// GetByID returns an order by its ID.
func (r *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	return &order, nil
}

// GetAll returns all orders, newest first.
func (r *MockOrderRepository) GetAll() ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(models.Order) bool { return true }), nil
}

// GetByCustomer returns a customer's orders, newest first.
func (r *MockOrderRepository) GetByCustomer(customerID string) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(o models.Order) bool { return o.CustomerID == customerID }), nil
}

// GetByStatus returns all orders in the given status, newest first.
func (r *MockOrderRepository) GetByStatus(status models.OrderStatus) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(func(o models.Order) bool { return o.Status == status }), nil
}

// GetByRider returns a rider's orders restricted to the given statuses.
func (r *MockOrderRepository) GetByRider(riderID string, statuses []models.OrderStatus) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[models.OrderStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	return r.collect(func(o models.Order) bool { return o.RiderID == riderID && wanted[o.Status] }), nil
}

// Accept assigns a rider to a pending order; a second accept on the same
// order fails with ErrConflict, never silently reassigns.
func (r *MockOrderRepository) Accept(id, riderID, riderName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	if order.Status != models.StatusPending {
		return fmt.Errorf("order %s is no longer pending: %w", id, models.ErrConflict)
	}
	order.Status = models.StatusAccepted
	order.RiderID = riderID
	order.RiderName = riderName
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// UpdateStatus moves an order from one status to the next under the same
// guard as the GORM implementation.
func (r *MockOrderRepository) UpdateStatus(id string, from, to models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", id, models.ErrNotFound)
	}
	if order.Status != from {
		return fmt.Errorf("order %s is no longer in status %s: %w", id, from, models.ErrConflict)
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return nil
}

// SavePricing persists priced items and totals while moving shopping -> delivery.
func (r *MockOrderRepository) SavePricing(order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[order.ID]
	if !ok {
		return fmt.Errorf("order with ID %s: %w", order.ID, models.ErrNotFound)
	}
	if stored.Status != models.StatusShopping {
		return fmt.Errorf("order %s is no longer shopping: %w", order.ID, models.ErrConflict)
	}
	stored.Items = append([]models.OrderItem(nil), order.Items...)
	stored.TotalItemsBill = order.TotalItemsBill
	stored.FinalTotal = order.FinalTotal
	stored.Status = models.StatusDelivery
	stored.UpdatedAt = time.Now()
	r.orders[order.ID] = stored
	return nil
}

// collect returns matching orders sorted newest first. Callers must hold at
// least the read lock.
func (r *MockOrderRepository) collect(match func(models.Order) bool) []models.Order {
	orderList := make([]models.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if match(order) {
			orderList = append(orderList, order)
		}
	}
	sort.Slice(orderList, func(i, j int) bool {
		return orderList[i].CreatedAt.After(orderList[j].CreatedAt)
	})
	return orderList
}
