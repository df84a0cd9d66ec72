package models

import (
	"time"
)

type Order struct {
	ID                   uint        `json:"id" gorm:"primaryKey"`
	OrderNumber          string      `json:"orderNumber" gorm:"uniqueIndex;not null"`
	Items                []OrderItem `json:"products" gorm:"foreignKey:OrderID"`
	ClientID             uint        `json:"clientId" gorm:"index;not null"`
	Client               *User       `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	SupplierID           uint        `json:"supplierId" gorm:"index;not null"`
	Supplier             *User       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Status               OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Subtotal             Money       `json:"subtotal" gorm:"not null"`
	Taxes                Money       `json:"taxes" gorm:"not null;default:0"`
	Total                Money       `json:"total" gorm:"not null"`
	ShippingAddress      Address     `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	OrderDate            time.Time   `json:"orderDate" gorm:"not null;index"`
	ExpectedDeliveryDate *time.Time  `json:"expectedDeliveryDate,omitempty"`
	Notes                string      `json:"notes"`
	CreatedAt            time.Time   `json:"createdAt"`
	UpdatedAt            time.Time   `json:"updatedAt"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// ShippingLeadTime is added to the shipping time to get the expected delivery date.
const ShippingLeadTime = 7 * 24 * time.Hour

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered, OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderPreparing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ApplyStatus sets the status and the dates that depend on it.
func (o *Order) ApplyStatus(status OrderStatus, now time.Time) {
	o.Status = status
	if status == OrderShipped {
		expected := now.Add(ShippingLeadTime)
		o.ExpectedDeliveryDate = &expected
	}
}

// InvolvesUser reports whether userID is the client or the supplier of the order.
func (o *Order) InvolvesUser(userID uint) bool {
	return o.ClientID == userID || o.SupplierID == userID
}
