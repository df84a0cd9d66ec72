package repository

import (
	"context"
	"supply_manager/internal/models"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter restricts a listing. Zero fields are ignored.
type OrderFilter struct {
	ClientID   uint
	SupplierID uint
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetForUpdate(ctx context.Context, id uint) (*models.Order, error)
	GetResolved(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, expectedDelivery *time.Time) error
	CountBySupplier(ctx context.Context, supplierID uint, statuses ...models.OrderStatus) (int64, error)
	SumTotalBySupplier(ctx context.Context, supplierID uint, status models.OrderStatus) (models.Money, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts the order together with its items.
func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Client", "Supplier").Create(order).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetForUpdate locks the order row until the surrounding transaction ends.
func (r *orderRepository) GetForUpdate(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetResolved(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.resolved(ctx).First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	query := r.resolved(ctx)
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}

	var orders []models.Order
	err := query.Order("order_date DESC").Order("id DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) resolved(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Client").
		Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Product")
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id uint, status models.OrderStatus, expectedDelivery *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if expectedDelivery != nil {
		updates["expected_delivery_date"] = *expectedDelivery
	}

	result := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepository) CountBySupplier(ctx context.Context, supplierID uint, statuses ...models.OrderStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("supplier_id = ?", supplierID)
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

func (r *orderRepository) SumTotalBySupplier(ctx context.Context, supplierID uint, status models.OrderStatus) (models.Money, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("supplier_id = ? AND status = ?", supplierID, status).
		Scan(&total).Error
	return models.Money(total), err
}
