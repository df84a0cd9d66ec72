package services

import (
	"context"
	"strings"

	"supply_manager/internal/apperr"
	"supply_manager/internal/models"
	"supply_manager/internal/policy"
	"supply_manager/internal/repository"
)

type CategoryInput struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type SupplierInput struct {
	Name    string         `json:"name"`
	Email   string         `json:"email"`
	Phone   string         `json:"phone"`
	Address models.Address `json:"address"`
	UserID  *uint          `json:"userId"`
}

type ProductInput struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Image       string        `json:"image"`
	Price       *models.Money `json:"price"`
	Quantity    int           `json:"quantity"`
	CategoryID  uint          `json:"category"`
	SupplierID  uint          `json:"supplier"`
}

type CatalogService interface {
	GetCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id uint) (*models.Category, error)
	CreateCategory(ctx context.Context, p policy.Principal, input CategoryInput) (*models.Category, error)
	UpdateCategory(ctx context.Context, p policy.Principal, id uint, input CategoryInput) (*models.Category, error)
	DeleteCategory(ctx context.Context, p policy.Principal, id uint) error

	GetSuppliers(ctx context.Context) ([]models.Supplier, error)
	GetSupplier(ctx context.Context, id uint) (*models.Supplier, error)
	CreateSupplier(ctx context.Context, p policy.Principal, input SupplierInput) (*models.Supplier, error)
	UpdateSupplier(ctx context.Context, p policy.Principal, id uint, input SupplierInput) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, p policy.Principal, id uint) error

	GetProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error)
	GetProduct(ctx context.Context, id uint) (*models.Product, error)
	CreateProduct(ctx context.Context, p policy.Principal, input ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, p policy.Principal, id uint, input ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, p policy.Principal, id uint) error
	AdjustStock(ctx context.Context, p policy.Principal, id uint, delta int) (*models.Product, error)
}

type catalogService struct {
	repos *repository.Repositories
}

func NewCatalogService(repos *repository.Repositories) CatalogService {
	return &catalogService{repos: repos}
}

// Categories

func (s *catalogService) GetCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repos.Categories.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return categories, nil
}

func (s *catalogService) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	category, err := s.repos.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Category")
	}
	return category, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, p policy.Principal, input CategoryInput) (*models.Category, error) {
	if err := policy.CanManageCategories(p); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("Name is required")
	}

	taken, err := s.repos.Categories.NameTaken(ctx, name, 0)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if taken {
		return nil, apperr.Conflict("Category already exists")
	}

	category := &models.Category{Name: name, Type: input.Type, Description: input.Description, Image: input.Image}
	if err := s.repos.Categories.Create(ctx, category); err != nil {
		return nil, apperr.FromStore(err, "Category")
	}
	return category, nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, p policy.Principal, id uint, input CategoryInput) (*models.Category, error) {
	if err := policy.CanManageCategories(p); err != nil {
		return nil, err
	}
	category, err := s.repos.Categories.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Category")
	}

	var columns []string
	if name := strings.TrimSpace(input.Name); name != "" && name != category.Name {
		taken, err := s.repos.Categories.NameTaken(ctx, name, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if taken {
			return nil, apperr.Conflict("Category name already exists")
		}
		category.Name = name
		columns = append(columns, "name")
	}
	if input.Type != "" {
		category.Type = input.Type
		columns = append(columns, "type")
	}
	if input.Description != "" {
		category.Description = input.Description
		columns = append(columns, "description")
	}
	if input.Image != "" {
		category.Image = input.Image
		columns = append(columns, "image")
	}

	if err := s.repos.Categories.Update(ctx, category, columns...); err != nil {
		return nil, apperr.FromStore(err, "Category")
	}
	return category, nil
}

// DeleteCategory refuses while products still reference the category.
func (s *catalogService) DeleteCategory(ctx context.Context, p policy.Principal, id uint) error {
	if err := policy.CanManageCategories(p); err != nil {
		return err
	}
	if _, err := s.repos.Categories.GetByID(ctx, id); err != nil {
		return apperr.FromStore(err, "Category")
	}

	inUse, err := s.repos.Products.CountByCategory(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if inUse > 0 {
		return apperr.Conflict("Category is still used by products")
	}

	if err := s.repos.Categories.Delete(ctx, id); err != nil {
		return apperr.FromStore(err, "Category")
	}
	return nil
}

// Suppliers

func (s *catalogService) GetSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers, err := s.repos.Suppliers.GetAll(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return suppliers, nil
}

func (s *catalogService) GetSupplier(ctx context.Context, id uint) (*models.Supplier, error) {
	supplier, err := s.repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Supplier")
	}
	return supplier, nil
}

func (s *catalogService) CreateSupplier(ctx context.Context, p policy.Principal, input SupplierInput) (*models.Supplier, error) {
	if err := policy.CanManageSuppliers(p); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Validation("Name is required")
	}
	if err := s.checkSupplierOwner(ctx, input.UserID); err != nil {
		return nil, err
	}

	taken, err := s.repos.Suppliers.NameTaken(ctx, name, 0)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if taken {
		return nil, apperr.Conflict("Supplier already exists")
	}

	supplier := &models.Supplier{
		Name:    name,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
		UserID:  input.UserID,
	}
	if err := s.repos.Suppliers.Create(ctx, supplier); err != nil {
		return nil, apperr.FromStore(err, "Supplier")
	}
	return s.GetSupplier(ctx, supplier.ID)
}

func (s *catalogService) UpdateSupplier(ctx context.Context, p policy.Principal, id uint, input SupplierInput) (*models.Supplier, error) {
	if err := policy.CanManageSuppliers(p); err != nil {
		return nil, err
	}
	supplier, err := s.repos.Suppliers.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Supplier")
	}

	var columns []string
	if name := strings.TrimSpace(input.Name); name != "" && name != supplier.Name {
		taken, err := s.repos.Suppliers.NameTaken(ctx, name, id)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if taken {
			return nil, apperr.Conflict("Supplier name already exists")
		}
		supplier.Name = name
		columns = append(columns, "name")
	}
	if input.Email != "" {
		supplier.Email = input.Email
		columns = append(columns, "email")
	}
	if input.Phone != "" {
		supplier.Phone = input.Phone
		columns = append(columns, "phone")
	}
	if input.Address != (models.Address{}) {
		supplier.Address = input.Address
		columns = append(columns, models.AddressColumns...)
	}
	if input.UserID != nil {
		if err := s.checkSupplierOwner(ctx, input.UserID); err != nil {
			return nil, err
		}
		supplier.UserID = input.UserID
		columns = append(columns, "user_id")
	}

	if err := s.repos.Suppliers.Update(ctx, supplier, columns...); err != nil {
		return nil, apperr.FromStore(err, "Supplier")
	}
	return s.GetSupplier(ctx, id)
}

func (s *catalogService) DeleteSupplier(ctx context.Context, p policy.Principal, id uint) error {
	if err := policy.CanManageSuppliers(p); err != nil {
		return err
	}
	if _, err := s.repos.Suppliers.GetByID(ctx, id); err != nil {
		return apperr.FromStore(err, "Supplier")
	}
	if err := s.repos.Suppliers.Delete(ctx, id); err != nil {
		return apperr.FromStore(err, "Supplier")
	}
	return nil
}

func (s *catalogService) checkSupplierOwner(ctx context.Context, userID *uint) error {
	if userID == nil {
		return nil
	}
	_, err := s.fournisseur(ctx, *userID)
	return err
}

// fournisseur loads a user that must exist and have the fournisseur role.
func (s *catalogService) fournisseur(ctx context.Context, userID uint) (*models.User, error) {
	return loadFournisseur(ctx, s.repos.Users, userID)
}

func loadFournisseur(ctx context.Context, users repository.UserRepository, userID uint) (*models.User, error) {
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		if apperr.Is(apperr.FromStore(err, "Supplier"), apperr.KindNotFound) {
			return nil, apperr.Validation("Supplier not found")
		}
		return nil, apperr.Internal(err)
	}
	if user.Role != models.RoleFournisseur {
		return nil, apperr.Validation("Supplier must be a fournisseur")
	}
	return user, nil
}

// Products

func (s *catalogService) GetProducts(ctx context.Context, filter repository.ProductFilter) ([]models.Product, error) {
	products, err := s.repos.Products.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return products, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	product, err := s.repos.Products.GetResolved(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Product")
	}
	return product, nil
}

func (s *catalogService) CreateProduct(ctx context.Context, p policy.Principal, input ProductInput) (*models.Product, error) {
	if input.SupplierID == 0 && p.Role == models.RoleFournisseur {
		input.SupplierID = p.UserID
	}
	if err := policy.CanCreateProduct(p, input.SupplierID); err != nil {
		return nil, err
	}
	if input.Price == nil {
		return nil, apperr.Validation("Price is required")
	}
	if err := s.validateProduct(ctx, &input); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, apperr.Validation("Quantity cannot be negative")
	}

	product := &models.Product{
		Name:        input.Name,
		Description: input.Description,
		Image:       input.Image,
		Price:       *input.Price,
		Quantity:    input.Quantity,
		CategoryID:  input.CategoryID,
		SupplierID:  input.SupplierID,
	}
	if err := s.repos.Products.Create(ctx, product); err != nil {
		return nil, apperr.FromStore(err, "Product")
	}
	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct changes the product details. Stock only moves through AdjustStock and orders.
func (s *catalogService) UpdateProduct(ctx context.Context, p policy.Principal, id uint, input ProductInput) (*models.Product, error) {
	product, err := s.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Product")
	}
	if err := policy.CanManageProduct(p, product); err != nil {
		return nil, err
	}

	if input.Name == "" {
		input.Name = product.Name
	}
	if input.CategoryID == 0 {
		input.CategoryID = product.CategoryID
	}
	if input.SupplierID == 0 {
		input.SupplierID = product.SupplierID
	}
	if input.Price == nil {
		input.Price = &product.Price
	}
	if input.SupplierID != product.SupplierID && !p.IsAdmin() {
		return nil, apperr.Unauthorized("Not authorized")
	}
	if err := s.validateProduct(ctx, &input); err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Price = *input.Price
	product.CategoryID = input.CategoryID
	product.SupplierID = input.SupplierID
	if input.Description != "" {
		product.Description = input.Description
	}
	if input.Image != "" {
		product.Image = input.Image
	}

	if err := s.repos.Products.UpdateDetails(ctx, product); err != nil {
		return nil, apperr.FromStore(err, "Product")
	}
	return s.GetProduct(ctx, id)
}

// DeleteProduct refuses while order lines still reference the product.
func (s *catalogService) DeleteProduct(ctx context.Context, p policy.Principal, id uint) error {
	product, err := s.repos.Products.GetByID(ctx, id)
	if err != nil {
		return apperr.FromStore(err, "Product")
	}
	if err := policy.CanManageProduct(p, product); err != nil {
		return err
	}

	ordered, err := s.repos.OrderItems.CountByProduct(ctx, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if ordered > 0 {
		return apperr.Conflict("Product is referenced by orders")
	}

	if err := s.repos.Products.Delete(ctx, id); err != nil {
		return apperr.FromStore(err, "Product")
	}
	return nil
}

// AdjustStock adds delta to the stock. A negative delta that would take the stock
// below zero is rejected and nothing changes.
func (s *catalogService) AdjustStock(ctx context.Context, p policy.Principal, id uint, delta int) (*models.Product, error) {
	product, err := s.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "Product")
	}
	if err := policy.CanManageProduct(p, product); err != nil {
		return nil, err
	}

	var ok bool
	switch {
	case delta > 0:
		ok, err = s.repos.Products.IncrementStock(ctx, id, delta)
	case delta < 0:
		ok, err = s.repos.Products.DecrementStock(ctx, id, -delta)
	default:
		return s.GetProduct(ctx, id)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !ok {
		return nil, apperr.InsufficientStock(product.Name)
	}
	return s.GetProduct(ctx, id)
}

func (s *catalogService) validateProduct(ctx context.Context, input *ProductInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return apperr.Validation("Name is required")
	}
	if input.Price != nil && *input.Price < 0 {
		return apperr.Validation("Price cannot be negative")
	}
	if input.CategoryID == 0 {
		return apperr.Validation("Category is required")
	}
	if _, err := s.repos.Categories.GetByID(ctx, input.CategoryID); err != nil {
		if apperr.Is(apperr.FromStore(err, "Category"), apperr.KindNotFound) {
			return apperr.Validation("Category not found")
		}
		return apperr.Internal(err)
	}
	_, err := s.fournisseur(ctx, input.SupplierID)
	return err
}
