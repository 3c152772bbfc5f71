package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus represents the delivery state of an order
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:        {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusOutForDelivery, OrderStatusCancelled},
	OrderStatusOutForDelivery: {OrderStatusDelivered},
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a priced line captured when the order is placed
type OrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Quantity  int       `json:"quantity"`
}

// Subtotal returns price times quantity
func (i OrderItem) Subtotal() int64 {
	return i.Price * int64(i.Quantity)
}

// Order is a customer purchase. Amount is in paise.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	UserID    uuid.UUID   `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Amount    int64       `json:"amount"`
	Address   Address     `json:"address"`
	Status    OrderStatus `json:"status"`
	Paid      bool        `json:"paid"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Total sums the item subtotals
func (o *Order) Total() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.Subtotal()
	}
	return total
}

// OrderStats summarises the shop for the admin dashboard
type OrderStats struct {
	TotalOrders   int                 `json:"total_orders"`
	TotalRevenue  int64               `json:"total_revenue"`
	ByStatus      map[OrderStatus]int `json:"by_status"`
	TotalUsers    int                 `json:"total_users"`
	TotalProducts int                 `json:"total_products"`
}

// OrderLine is a requested product and quantity before pricing
type OrderLine struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1,lte=50"`
}
