package repository

import (
	"context"
	"supply_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeliveryFilter struct {
	DelivererID uint
}

type DeliveryRepository interface {
	Create(ctx context.Context, delivery *models.Delivery) error
	GetByID(ctx context.Context, id uint) (*models.Delivery, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Delivery, error)
	GetResolved(ctx context.Context, id uint) (*models.Delivery, error)
	GetByOrderID(ctx context.Context, orderID uint) (*models.Delivery, error)
	GetForUpdateByOrderID(ctx context.Context, orderID uint) (*models.Delivery, error)
	ExistsForOrder(ctx context.Context, orderID uint) (bool, error)
	List(ctx context.Context, filter DeliveryFilter) ([]models.Delivery, error)
	Update(ctx context.Context, delivery *models.Delivery) error
	UpdateSignature(ctx context.Context, id uint, signature string) error
	CountByDeliverer(ctx context.Context, delivererID uint, statuses ...models.DeliveryStatus) (int64, error)
}

type deliveryRepository struct {
	db *gorm.DB
}

func NewDeliveryRepository(db *gorm.DB) DeliveryRepository {
	return &deliveryRepository{db: db}
}

func (r *deliveryRepository) Create(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(delivery).Error
}

func (r *deliveryRepository) GetByID(ctx context.Context, id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).First(&delivery, id).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) GetForUpdate(ctx context.Context, id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&delivery, id).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) GetResolved(ctx context.Context, id uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.resolved(ctx).First(&delivery, id).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) GetByOrderID(ctx context.Context, orderID uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.resolved(ctx).Where("order_id = ?", orderID).First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) GetForUpdateByOrderID(ctx context.Context, orderID uint) (*models.Delivery, error) {
	var delivery models.Delivery
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ?", orderID).First(&delivery).Error
	if err != nil {
		return nil, err
	}
	return &delivery, nil
}

func (r *deliveryRepository) ExistsForOrder(ctx context.Context, orderID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Delivery{}).Where("order_id = ?", orderID).Count(&count).Error
	return count > 0, err
}

func (r *deliveryRepository) List(ctx context.Context, filter DeliveryFilter) ([]models.Delivery, error) {
	query := r.resolved(ctx)
	if filter.DelivererID != 0 {
		query = query.Where("deliverer_id = ?", filter.DelivererID)
	}

	var deliveries []models.Delivery
	err := query.Order("created_at DESC").Order("id DESC").Find(&deliveries).Error
	return deliveries, err
}

func (r *deliveryRepository) resolved(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Order").Preload("Deliverer")
}

// Update writes the lifecycle columns only. The signature has its own writer.
func (r *deliveryRepository) Update(ctx context.Context, delivery *models.Delivery) error {
	return r.db.WithContext(ctx).Model(delivery).
		Select("status", "pickup_date", "actual_delivery_date", "notes", "updated_at").
		Updates(delivery).Error
}

func (r *deliveryRepository) UpdateSignature(ctx context.Context, id uint, signature string) error {
	return r.db.WithContext(ctx).Model(&models.Delivery{}).
		Where("id = ?", id).
		Update("signature", signature).Error
}

func (r *deliveryRepository) CountByDeliverer(ctx context.Context, delivererID uint, statuses ...models.DeliveryStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Delivery{}).Where("deliverer_id = ?", delivererID)
	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		query = query.Where("status IN ?", values)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}
