package domain

import "time"

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"   // Order placed, awaiting the seller
	OrderStatusConfirmed OrderStatus = "confirmed" // Accepted by the seller
	OrderStatusShipped   OrderStatus = "shipped"   // Out for delivery
	OrderStatusDelivered OrderStatus = "delivered" // Buyer received the goods
	OrderStatusCancelled OrderStatus = "cancelled" // Cancelled before shipping
)

// transitions lists the statuses reachable from each status
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

// Valid reports whether s is a known status
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from s to next
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order Model
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`                             // Surrogate key
	Username    string      `gorm:"size:64;not null;index" json:"username"`           // Buyer
	ProductName string      `gorm:"size:128;not null;index" json:"product_name"`      // Ordered product
	Quantity    int         `gorm:"not null" json:"quantity"`                         // Units ordered, at least 1
	Mobile      string      `gorm:"size:32;not null" json:"mobile"`                   // Contact phone
	Address     string      `gorm:"size:255;not null" json:"address"`                 // Delivery address
	Email       string      `gorm:"size:255;not null" json:"email"`                   // Buyer email for the confirmation
	Status      OrderStatus `gorm:"type:VARCHAR(20);default:'pending'" json:"status"` // Lifecycle state
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`                 // Checkout time
}
