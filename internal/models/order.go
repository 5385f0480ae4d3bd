package models

import "time"

// OrderItem is a single line in an order's shopping list. UnitPrice stays
// zero until the assigned rider fills it in during shopping; Subtotal is
// derived as UnitPrice * Qty when prices are confirmed.
type OrderItem struct {
	ID        uint    `json:"-" gorm:"primaryKey"`
	OrderID   string  `json:"-" gorm:"index;type:varchar(36)"`
	Name      string  `json:"name" validate:"required"`
	Qty       int     `json:"qty" validate:"required,gte=1"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
	Subtotal  float64 `json:"subtotal"`
}

// Order is the central entity: one delivery request moving through the
// five-state lifecycle. RiderID and RiderName are unset exactly while the
// order is pending. TotalItemsBill and FinalTotal are computed once, at the
// shopping -> delivery transition, and never recomputed afterwards.
type Order struct {
	ID               string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	CustomerID       string      `json:"customer_id" gorm:"index;type:varchar(36)"`
	CustomerName     string      `json:"customer_name"`
	CustomerPhone    string      `json:"customer_phone,omitempty"`
	ServiceType      string      `json:"service_type"` // "BuyMe" or "PickUp"
	Items            []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	DeliveryLocation string      `json:"delivery_location"`
	Instructions     string      `json:"instructions,omitempty"`
	DeliveryFee      float64     `json:"delivery_fee"`
	Status           OrderStatus `json:"status" gorm:"index;type:varchar(16)"`
	RiderID          string      `json:"rider_id,omitempty" gorm:"index;type:varchar(36)"`
	RiderName        string      `json:"rider_name,omitempty"`
	TotalItemsBill   float64     `json:"total_items_bill"`
	FinalTotal       float64     `json:"final_total"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}
