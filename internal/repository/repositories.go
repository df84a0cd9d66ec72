package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups every repository bound to the same connection or transaction.
type Repositories struct {
	Users      UserRepository
	Categories CategoryRepository
	Suppliers  SupplierRepository
	Products   ProductRepository
	Orders     OrderRepository
	OrderItems OrderItemRepository
	Deliveries DeliveryRepository
	Sequences  SequenceRepository

	db *gorm.DB
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:      NewUserRepository(db),
		Categories: NewCategoryRepository(db),
		Suppliers:  NewSupplierRepository(db),
		Products:   NewProductRepository(db),
		Orders:     NewOrderRepository(db),
		OrderItems: NewOrderItemRepository(db),
		Deliveries: NewDeliveryRepository(db),
		Sequences:  NewSequenceRepository(db),
		db:         db,
	}
}

// Transaction runs fn with repositories bound to a single database transaction.
// Returning an error from fn rolls everything back.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
