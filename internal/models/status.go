package models

// OrderStatus is the lifecycle state of an order. The lifecycle is strictly
// linear: pending -> accepted -> shopping -> delivery -> completed.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusShopping  OrderStatus = "shopping"
	StatusDelivery  OrderStatus = "delivery"
	StatusCompleted OrderStatus = "completed"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusAccepted: true},
	StatusAccepted:  {StatusShopping: true},
	StatusShopping:  {StatusDelivery: true},
	StatusDelivery:  {StatusCompleted: true},
	StatusCompleted: {},
}

// CanTransition reports whether an order may move from one status to another.
// There are no backward edges and no cancellation state.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// ActiveStatuses are the states in which an order is assigned to a rider but
// not yet completed.
var ActiveStatuses = []OrderStatus{StatusAccepted, StatusShopping, StatusDelivery}

// IsValidStatus reports whether s is one of the five lifecycle states.
func IsValidStatus(s OrderStatus) bool {
	_, ok := validNext[s]
	return ok
}
