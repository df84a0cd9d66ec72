package repository

import (
	"context"
	"supply_manager/internal/models"

	"gorm.io/gorm"
)

type OrderItemRepository interface {
	GetByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error)
	CountByProduct(ctx context.Context, productID uint) (int64, error)
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) GetByOrderID(ctx context.Context, orderID uint) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error
	return items, err
}

func (r *orderItemRepository) CountByProduct(ctx context.Context, productID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&count).Error
	return count, err
}
