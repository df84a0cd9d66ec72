// Package testutil opens throwaway databases and builds fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"supply_manager/internal/database"
	"supply_manager/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbCounter int64

// OpenDB returns a migrated in-memory SQLite database private to the test.
// A single connection is used so that transactions serialize.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared&_pragma=busy_timeout(5000)", atomic.AddInt64(&dbCounter, 1))
	db, err := database.Open(sqlite.Open(name), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// Fixtures creates rows directly through gorm.
type Fixtures struct {
	t  testing.TB
	db *gorm.DB
	n  int
}

func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) User(role models.Role) *models.User {
	f.t.Helper()
	f.n++
	user := &models.User{
		FirstName:    "User",
		LastName:     fmt.Sprintf("%d", f.n),
		Email:        fmt.Sprintf("user%d@example.com", f.n),
		PasswordHash: "x",
		Role:         role,
		Status:       models.UserActive,
		Address:      Address(),
	}
	require.NoError(f.t, f.db.Create(user).Error)
	return user
}

func (f *Fixtures) Courier() *models.User {
	f.t.Helper()
	user := f.User(models.RoleClient)
	user.Courier = true
	require.NoError(f.t, f.db.Save(user).Error)
	return user
}

func (f *Fixtures) Category() *models.Category {
	f.t.Helper()
	f.n++
	category := &models.Category{Name: fmt.Sprintf("Category %d", f.n)}
	require.NoError(f.t, f.db.Create(category).Error)
	return category
}

func (f *Fixtures) Product(supplier *models.User, price models.Money, quantity int) *models.Product {
	f.t.Helper()
	f.n++
	product := &models.Product{
		Name:       fmt.Sprintf("Product %d", f.n),
		Price:      price,
		Quantity:   quantity,
		CategoryID: f.Category().ID,
		SupplierID: supplier.ID,
	}
	require.NoError(f.t, f.db.Omit("Category", "Supplier").Create(product).Error)
	return product
}

// Order inserts an order in the given status without touching stock.
func (f *Fixtures) Order(client, supplier *models.User, status models.OrderStatus) *models.Order {
	f.t.Helper()
	f.n++
	order := &models.Order{
		OrderNumber:     fmt.Sprintf("ORD-FIXTURE-%d", f.n),
		ClientID:        client.ID,
		SupplierID:      supplier.ID,
		Status:          status,
		Subtotal:        1000,
		Taxes:           100,
		Total:           1100,
		ShippingAddress: Address(),
	}
	require.NoError(f.t, f.db.Omit("Client", "Supplier").Create(order).Error)
	return order
}

func (f *Fixtures) Stock(productID uint) int {
	f.t.Helper()
	var product models.Product
	require.NoError(f.t, f.db.WithContext(context.Background()).First(&product, productID).Error)
	return product.Quantity
}

func Address() models.Address {
	return models.Address{Street: "1 Rue de la Paix", City: "Paris", PostalCode: "75002", Country: "FR"}
}
