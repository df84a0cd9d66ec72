package models

import "time"

type Delivery struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	OrderID               uint           `json:"orderId" gorm:"uniqueIndex;not null"`
	Order                 *Order         `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	DelivererID           uint           `json:"delivererId" gorm:"index;not null"`
	Deliverer             *User          `json:"deliverer,omitempty" gorm:"foreignKey:DelivererID"`
	DeliveryAddress       Address        `json:"deliveryAddress" gorm:"embedded;embeddedPrefix:delivery_"`
	Status                DeliveryStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PickupDate            *time.Time     `json:"pickupDate,omitempty"`
	EstimatedDeliveryDate *time.Time     `json:"estimatedDeliveryDate,omitempty"`
	ActualDeliveryDate    *time.Time     `json:"actualDeliveryDate,omitempty"`
	Notes                 string         `json:"notes"`
	Signature             string         `json:"signature" gorm:"type:text"`
	TrackingNumber        string         `json:"trackingNumber" gorm:"uniqueIndex;not null"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryAssigned  DeliveryStatus = "assigned"
	DeliveryPickedUp  DeliveryStatus = "picked_up"
	DeliveryInTransit DeliveryStatus = "in_transit"
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
)

var deliveryTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:   {DeliveryAssigned, DeliveryFailed},
	DeliveryAssigned:  {DeliveryPickedUp, DeliveryFailed},
	DeliveryPickedUp:  {DeliveryInTransit, DeliveryFailed},
	DeliveryInTransit: {DeliveryDelivered, DeliveryFailed},
}

func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliveryAssigned, DeliveryPickedUp, DeliveryInTransit, DeliveryDelivered, DeliveryFailed:
		return true
	}
	return false
}

func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryFailed
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range deliveryTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ApplyStatus sets the status and stamps the dates tied to it.
func (d *Delivery) ApplyStatus(status DeliveryStatus, now time.Time) {
	d.Status = status
	switch status {
	case DeliveryPickedUp:
		d.PickupDate = &now
	case DeliveryDelivered:
		d.ActualDeliveryDate = &now
	}
}

// Sequence is a named counter used for human-readable identifiers.
type Sequence struct {
	Name  string `gorm:"primaryKey;type:varchar(50)"`
	Value int64  `gorm:"not null;default:0"`
}
