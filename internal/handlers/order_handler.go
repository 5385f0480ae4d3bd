package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"

	"lods/internal/realtime"
	"lods/internal/services"

	"github.com/gofiber/fiber/v2"
)

// OrderHandler handles HTTP requests for orders. Routes are registered per
// role group so the role middleware gates each surface; the service layer
// re-verifies the actor on every transition regardless.
type OrderHandler struct {
	service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{
		service: service,
	}
}

// RegisterCustomerRoutes registers the customer-facing order routes behind
// the given role guard. The guard runs per route: mounting it on the group
// prefix would apply it to every /orders route regardless of role.
func (h *OrderHandler) RegisterCustomerRoutes(router fiber.Router, guard fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Post("/", guard, h.HandleCreateOrder)
	orderRoutes.Get("/mine", guard, h.HandleMyOrders)
	orderRoutes.Get("/mine/stream", guard, h.HandleMyOrdersStream)
}

// RegisterRiderRoutes registers the rider-facing order routes.
func (h *OrderHandler) RegisterRiderRoutes(router fiber.Router, guard fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/available", guard, h.HandleAvailableOrders)
	orderRoutes.Get("/available/stream", guard, h.HandleAvailableOrdersStream)
	orderRoutes.Get("/active", guard, h.HandleActiveOrders)
	orderRoutes.Get("/active/stream", guard, h.HandleActiveOrdersStream)
	orderRoutes.Get("/earnings", guard, h.HandleEarnings)
	orderRoutes.Post("/:id/accept", guard, h.HandleAcceptOrder)
	orderRoutes.Post("/:id/shopping", guard, h.HandleStartShopping)
	orderRoutes.Post("/:id/pricing", guard, h.HandleConfirmPrices)
	orderRoutes.Post("/:id/delivered", guard, h.HandleMarkDelivered)
}

// RegisterManagerRoutes registers the master-list routes.
func (h *OrderHandler) RegisterManagerRoutes(router fiber.Router, guard fiber.Handler) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/", guard, h.HandleAllOrders)
	orderRoutes.Get("/stream", guard, h.HandleAllOrdersStream)
}

// RegisterCommonRoutes registers routes shared by every role. Must be
// registered after the role-specific routes so the named paths win over
// the :id parameter.
func (h *OrderHandler) RegisterCommonRoutes(router fiber.Router) {
	orderRoutes := router.Group("/orders")
	orderRoutes.Get("/:id", h.HandleGetOrderByID)
}

// HandleCreateOrder places a new order for the authenticated customer.
func (h *OrderHandler) HandleCreateOrder(c *fiber.Ctx) error {
	customerID, _ := c.Locals("user_id").(string)

	var input services.CreateOrderInput
	if err := c.BodyParser(&input); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	createdOrder, err := h.service.Create(customerID, input)
	if err != nil {
		log.Printf("Error creating order: %v", err)
		return fail(c, "Could not create order", err)
	}
	return c.Status(fiber.StatusCreated).JSON(createdOrder)
}

// HandleMyOrders returns the customer's orders, newest first.
func (h *OrderHandler) HandleMyOrders(c *fiber.Ctx) error {
	customerID, _ := c.Locals("user_id").(string)
	orders, err := h.service.OrdersForCustomer(customerID)
	if err != nil {
		log.Printf("Error getting orders for customer %s: %v", customerID, err)
		return fail(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleMyOrdersStream pushes the customer's full order list on every
// change.
func (h *OrderHandler) HandleMyOrdersStream(c *fiber.Ctx) error {
	customerID, _ := c.Locals("user_id").(string)
	return h.stream(c, func() (interface{}, error) {
		return h.service.OrdersForCustomer(customerID)
	})
}

// HandleAvailableOrders returns every pending (unassigned) order.
func (h *OrderHandler) HandleAvailableOrders(c *fiber.Ctx) error {
	orders, err := h.service.AvailableOrders()
	if err != nil {
		log.Printf("Error getting available orders: %v", err)
		return fail(c, "Could not retrieve available orders", err)
	}
	return c.JSON(orders)
}

// HandleAvailableOrdersStream pushes the pending-order feed on every change.
func (h *OrderHandler) HandleAvailableOrdersStream(c *fiber.Ctx) error {
	return h.stream(c, func() (interface{}, error) {
		return h.service.AvailableOrders()
	})
}

// HandleActiveOrders returns the rider's current jobs.
func (h *OrderHandler) HandleActiveOrders(c *fiber.Ctx) error {
	riderID, _ := c.Locals("user_id").(string)
	orders, err := h.service.ActiveForRider(riderID)
	if err != nil {
		log.Printf("Error getting active orders for rider %s: %v", riderID, err)
		return fail(c, "Could not retrieve active orders", err)
	}
	return c.JSON(orders)
}

// HandleActiveOrdersStream pushes the rider's current jobs on every change.
func (h *OrderHandler) HandleActiveOrdersStream(c *fiber.Ctx) error {
	riderID, _ := c.Locals("user_id").(string)
	return h.stream(c, func() (interface{}, error) {
		return h.service.ActiveForRider(riderID)
	})
}

// HandleEarnings returns the rider's total delivery-fee earnings from
// completed orders.
func (h *OrderHandler) HandleEarnings(c *fiber.Ctx) error {
	riderID, _ := c.Locals("user_id").(string)
	earnings, err := h.service.Earnings(riderID)
	if err != nil {
		log.Printf("Error computing earnings for rider %s: %v", riderID, err)
		return fail(c, "Could not compute earnings", err)
	}
	return c.JSON(fiber.Map{
		"total_earnings": earnings,
	})
}

// HandleAcceptOrder assigns the calling rider to a pending order. A lost
// race returns 409 and the rider should refresh their feed.
func (h *OrderHandler) HandleAcceptOrder(c *fiber.Ctx) error {
	riderID, _ := c.Locals("user_id").(string)
	orderID := c.Params("id")

	order, err := h.service.Accept(orderID, riderID)
	if err != nil {
		log.Printf("Error accepting order %s by rider %s: %v", orderID, riderID, err)
		return fail(c, "Could not accept order", err)
	}
	return c.JSON(fiber.Map{
		"message": "Order accepted",
		"order":   order,
	})
}

// HandleStartShopping moves the rider's accepted order into shopping.
func (h *OrderHandler) HandleStartShopping(c *fiber.Ctx) error {
	riderID, _ := c.Locals("user_id").(string)
	orderID := c.Params("id")

	order, err := h.service.StartShopping(orderID, riderID)
	if err != nil {
		log.Printf("Error starting shopping for order %s: %v", orderID, err)
		return fail(c, "Could not start shopping", err)
	}
	return c.JSON(order)
}

// ConfirmPricesRequest carries one unit price per order item, positional.
type ConfirmPricesRequest struct {
	UnitPrices []float64 `json:"unit_prices"`
}

// HandleConfirmPrices applies the rider's prices and moves the order into
// delivery with the final total computed.
func (h *OrderHandler) HandleConfirmPrices(c *fiber.Ctx) error {
	riderID, _ := c.Locals("user_id").(string)
	orderID := c.Params("id")

	var req ConfirmPricesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.ConfirmPrices(orderID, riderID, req.UnitPrices)
	if err != nil {
		log.Printf("Error confirming prices for order %s: %v", orderID, err)
		return fail(c, "Could not confirm prices", err)
	}
	return c.JSON(order)
}

// MarkDeliveredRequest confirms the rider collected the payment.
type MarkDeliveredRequest struct {
	PaymentCollected bool `json:"payment_collected"`
}

// HandleMarkDelivered completes the order after payment confirmation.
func (h *OrderHandler) HandleMarkDelivered(c *fiber.Ctx) error {
	riderID, _ := c.Locals("user_id").(string)
	orderID := c.Params("id")

	var req MarkDeliveredRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	order, err := h.service.MarkDelivered(orderID, riderID, req.PaymentCollected)
	if err != nil {
		log.Printf("Error marking order %s delivered: %v", orderID, err)
		return fail(c, "Could not mark order delivered", err)
	}
	return c.JSON(order)
}

// HandleAllOrders returns the full master list for the manager.
func (h *OrderHandler) HandleAllOrders(c *fiber.Ctx) error {
	orders, err := h.service.AllOrders()
	if err != nil {
		log.Printf("Error getting all orders: %v", err)
		return fail(c, "Could not retrieve orders", err)
	}
	return c.JSON(orders)
}

// HandleAllOrdersStream pushes the master list on every change.
func (h *OrderHandler) HandleAllOrdersStream(c *fiber.Ctx) error {
	return h.stream(c, func() (interface{}, error) {
		return h.service.AllOrders()
	})
}

// HandleGetOrderByID returns one order to its owner, its assigned rider or
// a manager.
func (h *OrderHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	callerID, _ := c.Locals("user_id").(string)
	orderID := c.Params("id")

	order, err := h.service.GetOrder(orderID, callerID)
	if err != nil {
		log.Printf("Error getting order by ID %s: %v", orderID, err)
		return fail(c, fmt.Sprintf("Could not retrieve order %s", orderID), err)
	}
	return c.JSON(order)
}

// stream serves a live view as a server-sent event stream. Each push is
// the full refreshed result set; the subscription is released when the
// client disconnects.
func (h *OrderHandler) stream(c *fiber.Ctx, fetch realtime.Fetch) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	sub := h.service.Hub().Subscribe(fetch)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer sub.Cancel()
		for result := range sub.C {
			payload, err := json.Marshal(result)
			if err != nil {
				log.Printf("Error marshaling stream payload: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away; Cancel releases the listener.
				return
			}
		}
	})
	return nil
}
