package repository

import (
	"context"
	"supply_manager/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	GetAll(ctx context.Context) ([]models.Category, error)
	Update(ctx context.Context, category *models.Category, columns ...string) error
	Delete(ctx context.Context, id uint) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, id).Error
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Category{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *categoryRepository) GetAll(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

// Update writes the named columns only. Nothing is written when none are given.
func (r *categoryRepository) Update(ctx context.Context, category *models.Category, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(category).Select(append(columns, "updated_at")).Updates(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, id).Error
}

type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	GetByID(ctx context.Context, id uint) (*models.Supplier, error)
	NameTaken(ctx context.Context, name string, excludeID uint) (bool, error)
	GetAll(ctx context.Context) ([]models.Supplier, error)
	Update(ctx context.Context, supplier *models.Supplier, columns ...string) error
	Delete(ctx context.Context, id uint) error
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(supplier).Error
}

func (r *supplierRepository) GetByID(ctx context.Context, id uint) (*models.Supplier, error) {
	var supplier models.Supplier
	err := r.db.WithContext(ctx).Preload("User").First(&supplier, id).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) NameTaken(ctx context.Context, name string, excludeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Supplier{}).
		Where("name = ? AND id <> ?", name, excludeID).
		Count(&count).Error
	return count > 0, err
}

func (r *supplierRepository) GetAll(ctx context.Context) ([]models.Supplier, error) {
	var suppliers []models.Supplier
	err := r.db.WithContext(ctx).Preload("User").Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *supplierRepository) Update(ctx context.Context, supplier *models.Supplier, columns ...string) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(supplier).Select(append(columns, "updated_at")).Omit(clause.Associations).Updates(supplier).Error
}

func (r *supplierRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Supplier{}, id).Error
}
