package services

import (
	"context"
	"fmt"
	"time"

	"supply_manager/internal/apperr"
	"supply_manager/internal/metrics"
	"supply_manager/internal/models"
	"supply_manager/internal/policy"
	"supply_manager/internal/repository"
	"supply_manager/pkg/notify"

	"go.uber.org/zap"
)

type OrderItemInput struct {
	ProductID uint `json:"product"`
	Quantity  int  `json:"quantity"`
}

type CreateOrderInput struct {
	Items           []OrderItemInput `json:"products"`
	SupplierID      uint             `json:"supplier"`
	ShippingAddress *models.Address  `json:"shippingAddress"`
	Notes           string           `json:"notes"`
}

type OrderService interface {
	CreateOrder(ctx context.Context, p policy.Principal, input CreateOrderInput) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, p policy.Principal, id uint, status models.OrderStatus) (*models.Order, error)
	GetOrders(ctx context.Context, p policy.Principal) ([]models.Order, error)
	GetOrder(ctx context.Context, p policy.Principal, id uint) (*models.Order, error)
	GetOrderDelivery(ctx context.Context, p policy.Principal, id uint) (*models.Delivery, error)
}

type orderService struct {
	repos  *repository.Repositories
	stats  StatsService
	events *Events
	now    func() time.Time
}

func NewOrderService(repos *repository.Repositories, stats StatsService, events *Events) OrderService {
	return &orderService{repos: repos, stats: stats, events: events, now: time.Now}
}

// CreateOrder prices the cart, reserves stock and stores the order in one transaction.
// Stock is reserved with conditional decrements, so concurrent orders cannot oversell.
func (s *orderService) CreateOrder(ctx context.Context, p policy.Principal, input CreateOrderInput) (*models.Order, error) {
	if err := policy.CanCreateOrder(p); err != nil {
		return nil, err
	}
	if len(input.Items) == 0 {
		return nil, apperr.Validation("Products are required")
	}
	for _, item := range input.Items {
		if item.ProductID == 0 {
			return nil, apperr.Validation("Product is required")
		}
		if item.Quantity < 1 {
			return nil, apperr.Validation("Quantity must be at least 1")
		}
	}

	now := s.now()
	order := &models.Order{
		ClientID:   p.UserID,
		SupplierID: input.SupplierID,
		Status:     models.OrderPending,
		OrderDate:  now,
		Notes:      input.Notes,
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := loadFournisseur(ctx, tx.Users, input.SupplierID); err != nil {
			return err
		}

		address, err := s.shippingAddress(ctx, tx, p.UserID, input.ShippingAddress)
		if err != nil {
			return err
		}
		order.ShippingAddress = address

		items, err := reserveItems(ctx, tx, input)
		if err != nil {
			return err
		}
		order.Items = items

		totals := models.ComputeTotals(order.Items)
		order.Subtotal = totals.Subtotal
		order.Taxes = totals.Taxes
		order.Total = totals.Total

		seq, err := tx.Sequences.Next(ctx, repository.SequenceOrders)
		if err != nil {
			return apperr.Internal(err)
		}
		order.OrderNumber = formatNumber("ORD", now, seq)

		if err := tx.Orders.Create(ctx, order); err != nil {
			return apperr.FromStore(err, "Order")
		}
		return nil
	})
	if err != nil {
		if apperr.Is(err, apperr.KindInsufficientStock) {
			metrics.StockRejections.Inc()
		}
		return nil, err
	}

	metrics.OrdersCreated.Inc()
	s.stats.InvalidateSupplier(ctx, order.SupplierID)
	s.events.Publish(ctx, notify.EventOrderCreated, newOrderEvent(order))
	zap.L().Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("client_id", order.ClientID),
		zap.Uint("supplier_id", order.SupplierID),
		zap.String("total", order.Total.String()))

	return s.resolve(ctx, order.ID)
}

// reserveItems snapshots prices and decrements stock for every cart line.
func reserveItems(ctx context.Context, tx *repository.Repositories, input CreateOrderInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		product, err := tx.Products.GetByID(ctx, line.ProductID)
		if err != nil {
			return nil, apperr.FromStore(err, "Product")
		}
		if product.SupplierID != input.SupplierID {
			return nil, apperr.Validationf("Product %s is not sold by this supplier", product.Name)
		}

		ok, err := tx.Products.DecrementStock(ctx, product.ID, line.Quantity)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if !ok {
			return nil, apperr.InsufficientStock(product.Name)
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
	}
	return items, nil
}

// shippingAddress falls back to the client's own address when none is given.
func (s *orderService) shippingAddress(ctx context.Context, tx *repository.Repositories, clientID uint, given *models.Address) (models.Address, error) {
	if given != nil {
		if !given.Complete() {
			return models.Address{}, apperr.Validation("Shipping address is incomplete")
		}
		return *given, nil
	}

	client, err := tx.Users.GetByID(ctx, clientID)
	if err != nil {
		return models.Address{}, apperr.FromStore(err, "User")
	}
	if !client.Address.Complete() {
		return models.Address{}, apperr.Validation("Shipping address is required")
	}
	return client.Address, nil
}

// UpdateOrderStatus moves the order one step along its lifecycle. Cancelling returns
// the reserved stock and fails the active delivery in the same transaction.
func (s *orderService) UpdateOrderStatus(ctx context.Context, p policy.Principal, id uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status")
	}

	var order *models.Order
	var failed *models.Delivery
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		order, err = tx.Orders.GetForUpdate(ctx, id)
		if err != nil {
			return apperr.FromStore(err, "Order")
		}
		if err := policy.CanTransitionOrder(p, order, status); err != nil {
			return err
		}

		now := s.now()
		if status == models.OrderCancelled {
			if err := restock(ctx, tx, order.ID); err != nil {
				return err
			}
			if failed, err = failActiveDelivery(ctx, tx, order.ID, now); err != nil {
				return err
			}
		}

		order.ApplyStatus(status, now)
		if err := tx.Orders.UpdateStatus(ctx, order.ID, order.Status, order.ExpectedDeliveryDate); err != nil {
			return apperr.FromStore(err, "Order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordOrderTransition(string(status))
	s.stats.InvalidateSupplier(ctx, order.SupplierID)
	s.events.Publish(ctx, notify.EventOrderStatusChanged, newOrderEvent(order))
	if failed != nil {
		metrics.RecordDeliveryTransition(string(failed.Status))
		s.stats.InvalidateDeliverer(ctx, failed.DelivererID)
		s.events.Publish(ctx, notify.EventDeliveryStatusChanged, newDeliveryEvent(failed))
	}

	return s.resolve(ctx, order.ID)
}

func restock(ctx context.Context, tx *repository.Repositories, orderID uint) error {
	items, err := tx.OrderItems.GetByOrderID(ctx, orderID)
	if err != nil {
		return apperr.Internal(err)
	}
	for _, item := range items {
		// A product deleted since the order was placed has nothing to restock.
		if _, err := tx.Products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
			return apperr.Internal(err)
		}
	}
	return nil
}

// failActiveDelivery marks the order's delivery failed unless it already finished.
func failActiveDelivery(ctx context.Context, tx *repository.Repositories, orderID uint, now time.Time) (*models.Delivery, error) {
	delivery, err := tx.Deliveries.GetForUpdateByOrderID(ctx, orderID)
	if err != nil {
		if apperr.Is(apperr.FromStore(err, "Delivery"), apperr.KindNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal(err)
	}
	if delivery.Status.Terminal() {
		return nil, nil
	}

	delivery.ApplyStatus(models.DeliveryFailed, now)
	if err := tx.Deliveries.Update(ctx, delivery); err != nil {
		return nil, apperr.FromStore(err, "Delivery")
	}
	return delivery, nil
}

func (s *orderService) GetOrders(ctx context.Context, p policy.Principal) ([]models.Order, error) {
	var filter repository.OrderFilter
	switch p.Role {
	case models.RoleAdmin:
	case models.RoleFournisseur:
		filter.SupplierID = p.UserID
	default:
		filter.ClientID = p.UserID
	}

	orders, err := s.repos.Orders.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return orders, nil
}

func (s *orderService) GetOrder(ctx context.Context, p policy.Principal, id uint) (*models.Order, error) {
	order, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewOrder(p, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetOrderDelivery(ctx context.Context, p policy.Principal, id uint) (*models.Delivery, error) {
	order, err := s.repos.Orders.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Order")
	}
	delivery, err := s.repos.Deliveries.GetByOrderID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Delivery")
	}
	if err := policy.CanViewOrderDelivery(p, order, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

func (s *orderService) resolve(ctx context.Context, id uint) (*models.Order, error) {
	order, err := s.repos.Orders.GetResolved(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Order")
	}
	return order, nil
}

// formatNumber renders identifiers like ORD-20240501-000042.
func formatNumber(prefix string, at time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, at.UTC().Format("20060102"), seq)
}
