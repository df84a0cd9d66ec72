package services

import (
	"context"
	"time"

	"supply_manager/internal/apperr"
	"supply_manager/internal/metrics"
	"supply_manager/internal/models"
	"supply_manager/internal/policy"
	"supply_manager/internal/repository"
	"supply_manager/pkg/notify"

	"go.uber.org/zap"
)

type CreateDeliveryInput struct {
	OrderID               uint       `json:"orderId"`
	DelivererID           uint       `json:"delivererId"`
	EstimatedDeliveryDate *time.Time `json:"estimatedDeliveryDate"`
	Notes                 string     `json:"notes"`
}

type UpdateDeliveryStatusInput struct {
	Status models.DeliveryStatus `json:"status"`
	Notes  string                `json:"notes"`
}

type DeliveryService interface {
	CreateDelivery(ctx context.Context, p policy.Principal, input CreateDeliveryInput) (*models.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, p policy.Principal, id uint, input UpdateDeliveryStatusInput) (*models.Delivery, error)
	SetSignature(ctx context.Context, p policy.Principal, id uint, signature string) (*models.Delivery, error)
	GetDeliveries(ctx context.Context, p policy.Principal) ([]models.Delivery, error)
	GetDelivery(ctx context.Context, p policy.Principal, id uint) (*models.Delivery, error)
}

type deliveryService struct {
	repos  *repository.Repositories
	stats  StatsService
	events *Events
	now    func() time.Time
}

func NewDeliveryService(repos *repository.Repositories, stats StatsService, events *Events) DeliveryService {
	return &deliveryService{repos: repos, stats: stats, events: events, now: time.Now}
}

// CreateDelivery opens the single delivery of a shipped order.
func (s *deliveryService) CreateDelivery(ctx context.Context, p policy.Principal, input CreateDeliveryInput) (*models.Delivery, error) {
	if err := policy.CanCreateDelivery(p); err != nil {
		return nil, err
	}
	if input.OrderID == 0 {
		return nil, apperr.Validation("Order is required")
	}

	now := s.now()
	delivery := &models.Delivery{
		OrderID:               input.OrderID,
		DelivererID:           input.DelivererID,
		Status:                models.DeliveryPending,
		EstimatedDeliveryDate: input.EstimatedDeliveryDate,
		Notes:                 input.Notes,
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		order, err := tx.Orders.GetForUpdate(ctx, input.OrderID)
		if err != nil {
			return apperr.FromStore(err, "Order")
		}
		if order.Status != models.OrderShipped {
			return apperr.Validation("Order must be shipped before creating delivery")
		}

		exists, err := tx.Deliveries.ExistsForOrder(ctx, order.ID)
		if err != nil {
			return apperr.Internal(err)
		}
		if exists {
			return apperr.Conflict("Delivery already exists for this order")
		}

		if err := checkCourier(ctx, tx.Users, input.DelivererID); err != nil {
			return err
		}

		seq, err := tx.Sequences.Next(ctx, repository.SequenceDeliveries)
		if err != nil {
			return apperr.Internal(err)
		}
		delivery.TrackingNumber = formatNumber("TRK", now, seq)
		delivery.DeliveryAddress = order.ShippingAddress
		if delivery.EstimatedDeliveryDate == nil {
			delivery.EstimatedDeliveryDate = order.ExpectedDeliveryDate
		}

		if err := tx.Deliveries.Create(ctx, delivery); err != nil {
			if apperr.Is(apperr.FromStore(err, "Delivery"), apperr.KindConflict) {
				return apperr.Conflict("Delivery already exists for this order")
			}
			return apperr.Internal(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.stats.InvalidateDeliverer(ctx, delivery.DelivererID)
	s.events.Publish(ctx, notify.EventDeliveryCreated, newDeliveryEvent(delivery))
	zap.L().Info("Delivery created",
		zap.String("tracking_number", delivery.TrackingNumber),
		zap.Uint("order_id", delivery.OrderID),
		zap.Uint("deliverer_id", delivery.DelivererID))

	return s.resolve(ctx, delivery.ID)
}

func checkCourier(ctx context.Context, users repository.UserRepository, userID uint) error {
	if userID == 0 {
		return apperr.Validation("Deliverer is required")
	}
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if apperr.Is(apperr.FromStore(err, "Deliverer"), apperr.KindNotFound) {
			return apperr.Validation("Deliverer not found")
		}
		return apperr.Internal(err)
	}
	if !user.Courier || user.Status != models.UserActive {
		return apperr.Validation("Deliverer must be an active courier")
	}
	return nil
}

// UpdateDeliveryStatus advances the delivery. Reaching delivered also completes the
// order inside the same transaction.
func (s *deliveryService) UpdateDeliveryStatus(ctx context.Context, p policy.Principal, id uint, input UpdateDeliveryStatusInput) (*models.Delivery, error) {
	if !input.Status.Valid() {
		return nil, apperr.Validation("Invalid status")
	}

	var delivery *models.Delivery
	var completed *models.Order
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		current, err := tx.Deliveries.GetByID(ctx, id)
		if err != nil {
			return apperr.FromStore(err, "Delivery")
		}
		// Order before delivery, the same order cancellation locks them in.
		order, err := tx.Orders.GetForUpdate(ctx, current.OrderID)
		if err != nil {
			return apperr.FromStore(err, "Order")
		}
		delivery, err = tx.Deliveries.GetForUpdate(ctx, id)
		if err != nil {
			return apperr.FromStore(err, "Delivery")
		}
		if err := policy.CanUpdateDelivery(p, delivery, input.Status); err != nil {
			return err
		}

		now := s.now()
		delivery.ApplyStatus(input.Status, now)
		if input.Notes != "" {
			delivery.Notes = input.Notes
		}
		if err := tx.Deliveries.Update(ctx, delivery); err != nil {
			return apperr.FromStore(err, "Delivery")
		}

		if input.Status == models.DeliveryDelivered {
			completed, err = completeOrder(ctx, tx, order, now)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordDeliveryTransition(string(input.Status))
	s.stats.InvalidateDeliverer(ctx, delivery.DelivererID)
	s.events.Publish(ctx, notify.EventDeliveryStatusChanged, newDeliveryEvent(delivery))
	if completed != nil {
		metrics.RecordOrderTransition(string(completed.Status))
		s.stats.InvalidateSupplier(ctx, completed.SupplierID)
		s.events.Publish(ctx, notify.EventOrderStatusChanged, newOrderEvent(completed))
	}

	return s.resolve(ctx, delivery.ID)
}

// completeOrder force-sets the locked order to delivered.
func completeOrder(ctx context.Context, tx *repository.Repositories, order *models.Order, now time.Time) (*models.Order, error) {
	if order.Status == models.OrderDelivered {
		return nil, nil
	}

	order.ApplyStatus(models.OrderDelivered, now)
	if err := tx.Orders.UpdateStatus(ctx, order.ID, order.Status, nil); err != nil {
		return nil, apperr.FromStore(err, "Order")
	}
	return order, nil
}

func (s *deliveryService) SetSignature(ctx context.Context, p policy.Principal, id uint, signature string) (*models.Delivery, error) {
	delivery, err := s.repos.Deliveries.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Delivery")
	}
	if err := policy.CanSignDelivery(p, delivery); err != nil {
		return nil, err
	}

	if err := s.repos.Deliveries.UpdateSignature(ctx, id, signature); err != nil {
		return nil, apperr.FromStore(err, "Delivery")
	}
	return s.resolve(ctx, id)
}

func (s *deliveryService) GetDeliveries(ctx context.Context, p policy.Principal) ([]models.Delivery, error) {
	var filter repository.DeliveryFilter
	if !p.IsAdmin() {
		filter.DelivererID = p.UserID
	}

	deliveries, err := s.repos.Deliveries.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return deliveries, nil
}

func (s *deliveryService) GetDelivery(ctx context.Context, p policy.Principal, id uint) (*models.Delivery, error) {
	delivery, err := s.resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.CanViewDelivery(p, delivery); err != nil {
		return nil, err
	}
	return delivery, nil
}

func (s *deliveryService) resolve(ctx context.Context, id uint) (*models.Delivery, error) {
	delivery, err := s.repos.Deliveries.GetResolved(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Delivery")
	}
	return delivery, nil
}
