package services

import (
	"context"
	"time"

	"supply_manager/internal/models"
	"supply_manager/pkg/notify"

	"go.uber.org/zap"
)

// Notifier delivers workflow events to an external system.
type Notifier interface {
	Send(ctx context.Context, event notify.Event) error
}

const notifyTimeout = 5 * time.Second

// Events publishes after commit. A nil notifier disables publishing.
type Events struct {
	notifier Notifier
	now      func() time.Time
}

func NewEvents(notifier Notifier) *Events {
	return &Events{notifier: notifier, now: time.Now}
}

// Publish never fails the caller; delivery problems are only logged.
func (e *Events) Publish(ctx context.Context, eventType string, data interface{}) {
	if e == nil || e.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	event := notify.Event{Type: eventType, OccurredAt: e.now().UTC(), Data: data}
	if err := e.notifier.Send(ctx, event); err != nil {
		zap.L().Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

type orderEvent struct {
	OrderID     uint   `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	ClientID    uint   `json:"clientId"`
	SupplierID  uint   `json:"supplierId"`
}

func newOrderEvent(order *models.Order) orderEvent {
	return orderEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		ClientID:    order.ClientID,
		SupplierID:  order.SupplierID,
	}
}

type deliveryEvent struct {
	DeliveryID     uint   `json:"deliveryId"`
	OrderID        uint   `json:"orderId"`
	TrackingNumber string `json:"trackingNumber"`
	Status         string `json:"status"`
	DelivererID    uint   `json:"delivererId"`
}

func newDeliveryEvent(delivery *models.Delivery) deliveryEvent {
	return deliveryEvent{
		DeliveryID:     delivery.ID,
		OrderID:        delivery.OrderID,
		TrackingNumber: delivery.TrackingNumber,
		Status:         string(delivery.Status),
		DelivererID:    delivery.DelivererID,
	}
}
