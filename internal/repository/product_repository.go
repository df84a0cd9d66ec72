package repository

import (
	"context"
	"supply_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductFilter struct {
	CategoryID uint
	SupplierID uint
}

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetResolved(ctx context.Context, id uint) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, error)
	UpdateDetails(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	CountByCategory(ctx context.Context, categoryID uint) (int64, error)
	// DecrementStock removes quantity units only if at least that many are in stock.
	// It reports false when the product is missing or the stock is too low.
	DecrementStock(ctx context.Context, id uint, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id uint, quantity int) (bool, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetResolved(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Preload("Category").Preload("Supplier").First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Preload("Category").Preload("Supplier")
	if filter.CategoryID != 0 {
		query = query.Where("category_id = ?", filter.CategoryID)
	}
	if filter.SupplierID != 0 {
		query = query.Where("supplier_id = ?", filter.SupplierID)
	}

	var products []models.Product
	err := query.Order("name ASC").Find(&products).Error
	return products, err
}

// UpdateDetails writes everything except the stock level, which only moves
// through DecrementStock and IncrementStock.
func (r *productRepository) UpdateDetails(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("name", "description", "image", "price", "category_id", "supplier_id").
		Updates(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *productRepository) CountByCategory(ctx context.Context, categoryID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *productRepository) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *productRepository) IncrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
