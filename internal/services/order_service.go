package services

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"lods/internal/models"
	"lods/internal/realtime"
	"lods/internal/repositories"
	"lods/pkg/rabbitmq"

	"github.com/google/uuid"
)

// EventPublisher publishes order lifecycle events. Satisfied by
// *rabbitmq.Client; nil disables publication.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// Service types an order can be created with.
const (
	ServiceBuyMe  = "BuyMe"
	ServicePickUp = "PickUp"
)

// CreateOrderInput is the customer-supplied part of a new order. Unit
// prices are never accepted here; they are filled in by the rider during
// shopping.
type CreateOrderInput struct {
	ServiceType      string             `json:"service_type"`
	Items            []models.OrderItem `json:"items"`
	DeliveryLocation string             `json:"delivery_location"`
	Instructions     string             `json:"instructions"`
}

// OrderService owns the order lifecycle: creation, the status transitions
// and who may trigger each of them. Every caller identity is re-verified
// against the stored profile before a mutation; the role claim in the
// session token is never trusted on its own.
type OrderService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	locations *LocationService
	publisher EventPublisher
	hub       *realtime.Hub
}

// NewOrderService creates a new OrderService. publisher and hub may be nil.
func NewOrderService(
	orderRepo repositories.OrderRepository,
	userRepo repositories.UserRepository,
	locations *LocationService,
	publisher EventPublisher,
	hub *realtime.Hub,
) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		locations: locations,
		publisher: publisher,
		hub:       hub,
	}
}

// Create places a new order for the customer. The order starts pending and
// unassigned, with the delivery fee resolved from the location rate table
// and the final total left unset until the delivery transition.
func (s *OrderService) Create(customerID string, input CreateOrderInput) (*models.Order, error) {
	customer, err := s.requireRole(customerID, models.RoleCustomer)
	if err != nil {
		return nil, err
	}

	if len(input.Items) == 0 {
		return nil, fmt.Errorf("at least one item is required: %w", models.ErrValidation)
	}
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		if strings.TrimSpace(item.Name) == "" {
			return nil, fmt.Errorf("every item needs a name: %w", models.ErrValidation)
		}
		if item.Qty < 1 {
			return nil, fmt.Errorf("item %q needs a quantity of at least 1: %w", item.Name, models.ErrValidation)
		}
		items = append(items, models.OrderItem{
			Name: strings.TrimSpace(item.Name),
			Qty:  item.Qty,
			// UnitPrice and Subtotal stay zero until shopping.
		})
	}
	if strings.TrimSpace(input.DeliveryLocation) == "" {
		return nil, fmt.Errorf("a delivery location is required: %w", models.ErrValidation)
	}

	serviceType := input.ServiceType
	if serviceType == "" {
		serviceType = ServiceBuyMe
	}
	if serviceType != ServiceBuyMe && serviceType != ServicePickUp {
		return nil, fmt.Errorf("unknown service type %q: %w", serviceType, models.ErrValidation)
	}

	order := &models.Order{
		ID:               uuid.New().String(),
		CustomerID:       customer.ID,
		CustomerName:     customer.FullName,
		CustomerPhone:    customer.ContactNo,
		ServiceType:      serviceType,
		Items:            items,
		DeliveryLocation: strings.TrimSpace(input.DeliveryLocation),
		Instructions:     input.Instructions,
		DeliveryFee:      s.locations.ResolveFee(input.DeliveryLocation),
		Status:           models.StatusPending,
	}

	if err := s.orderRepo.Create(order); err != nil {
		return nil, fmt.Errorf("failed to create order in repository: %w", err)
	}

	s.publishEvent(rabbitmq.RoutingOrderCreated, map[string]interface{}{
		"order_id":     order.ID,
		"customer_id":  order.CustomerID,
		"status":       order.Status,
		"delivery_fee": order.DeliveryFee,
	})
	s.notify()
	return order, nil
}

// Accept assigns the calling rider to a pending order. The update is a
// conditional write: when two riders race for the same order, exactly one
// wins and the other receives ErrConflict.
func (s *OrderService) Accept(orderID, riderID string) (*models.Order, error) {
	rider, err := s.requireRole(riderID, models.RoleRider)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Accept(orderID, rider.ID, rider.FullName); err != nil {
		return nil, err
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publishStatusChange(order)
	s.notify()
	return order, nil
}

// StartShopping moves the caller's accepted order into shopping.
func (s *OrderService) StartShopping(orderID, riderID string) (*models.Order, error) {
	order, err := s.assignedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(order.ID, models.StatusAccepted, models.StatusShopping); err != nil {
		return nil, err
	}
	order.Status = models.StatusShopping
	s.publishStatusChange(order)
	s.notify()
	return order, nil
}

// ConfirmPrices applies the rider's unit prices (positional, one per item;
// missing entries are treated as 0), computes the per-item subtotals and
// the final total exactly once, and moves the order into delivery. The
// totals are never recomputed afterwards.
func (s *OrderService) ConfirmPrices(orderID, riderID string, unitPrices []float64) (*models.Order, error) {
	order, err := s.assignedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusShopping {
		return nil, fmt.Errorf("order %s is not in shopping: %w", orderID, models.ErrConflict)
	}

	var itemsTotal float64
	for i := range order.Items {
		price := 0.0
		if i < len(unitPrices) {
			price = unitPrices[i]
		}
		if price < 0 {
			return nil, fmt.Errorf("unit price for %q cannot be negative: %w", order.Items[i].Name, models.ErrValidation)
		}
		order.Items[i].UnitPrice = price
		order.Items[i].Subtotal = round2(price * float64(order.Items[i].Qty))
		itemsTotal += order.Items[i].Subtotal
	}
	order.TotalItemsBill = round2(itemsTotal)
	order.FinalTotal = round2(order.TotalItemsBill + order.DeliveryFee)

	if err := s.orderRepo.SavePricing(order); err != nil {
		return nil, err
	}
	order.Status = models.StatusDelivery
	s.publishStatusChange(order)
	s.notify()
	return order, nil
}

// MarkDelivered completes the order. The rider must explicitly confirm
// that payment was collected before the transition is allowed.
func (s *OrderService) MarkDelivered(orderID, riderID string, paymentCollected bool) (*models.Order, error) {
	if !paymentCollected {
		return nil, fmt.Errorf("payment collection must be confirmed: %w", models.ErrValidation)
	}
	order, err := s.assignedOrder(orderID, riderID)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.UpdateStatus(order.ID, models.StatusDelivery, models.StatusCompleted); err != nil {
		return nil, err
	}
	order.Status = models.StatusCompleted
	s.publishStatusChange(order)
	s.notify()
	return order, nil
}

// GetOrder returns one order to its owner, its assigned rider or a manager.
func (s *OrderService) GetOrder(orderID, callerID string) (*models.Order, error) {
	caller, err := s.userRepo.GetByID(callerID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if caller.Role != models.RoleManager && order.CustomerID != caller.ID && order.RiderID != caller.ID {
		return nil, fmt.Errorf("order %s does not belong to you: %w", orderID, models.ErrForbidden)
	}
	return order, nil
}

// OrdersForCustomer returns the customer's orders, newest first.
func (s *OrderService) OrdersForCustomer(customerID string) ([]models.Order, error) {
	return s.orderRepo.GetByCustomer(customerID)
}

// AvailableOrders returns every unassigned (pending) order.
func (s *OrderService) AvailableOrders() ([]models.Order, error) {
	return s.orderRepo.GetByStatus(models.StatusPending)
}

// ActiveForRider returns the rider's accepted/shopping/delivery orders.
func (s *OrderService) ActiveForRider(riderID string) ([]models.Order, error) {
	return s.orderRepo.GetByRider(riderID, models.ActiveStatuses)
}

// AllOrders returns the full master list, newest first.
func (s *OrderService) AllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

// Earnings sums the delivery fees of the rider's completed orders (the
// rider is paid the fee; item cost is passed through to the customer).
func (s *OrderService) Earnings(riderID string) (float64, error) {
	completed, err := s.orderRepo.GetByRider(riderID, []models.OrderStatus{models.StatusCompleted})
	if err != nil {
		return 0, err
	}
	var earnings float64
	for _, order := range completed {
		earnings += order.DeliveryFee
	}
	return round2(earnings), nil
}

// Hub exposes the realtime hub for the streaming handlers.
func (s *OrderService) Hub() *realtime.Hub {
	return s.hub
}

// requireRole loads the caller's stored profile and verifies its role.
func (s *OrderService) requireRole(userID string, role models.Role) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Role != role {
		return nil, fmt.Errorf("operation requires the %s role: %w", role, models.ErrForbidden)
	}
	return user, nil
}

// assignedOrder verifies the caller is a rider and is the one assigned to
// the order.
func (s *OrderService) assignedOrder(orderID, riderID string) (*models.Order, error) {
	if _, err := s.requireRole(riderID, models.RoleRider); err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order.RiderID != riderID {
		return nil, fmt.Errorf("order %s is assigned to another rider: %w", orderID, models.ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) publishStatusChange(order *models.Order) {
	s.publishEvent(rabbitmq.RoutingOrderStatusMoved, map[string]interface{}{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"rider_id":    order.RiderID,
		"status":      order.Status,
		"final_total": order.FinalTotal,
	})
}

// publishEvent sends an event to the message broker, best effort. A broker
// failure is logged and never fails the triggering operation.
func (s *OrderService) publishEvent(routingKey string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.publisher.Publish(rabbitmq.OrderExchange, routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}

func (s *OrderService) notify() {
	if s.hub != nil {
		s.hub.Notify()
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
