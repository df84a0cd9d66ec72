package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"supply_manager/internal/models"
	"supply_manager/internal/repository"
	"supply_manager/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*repository.Repositories, *testutil.Fixtures) {
	db := testutil.OpenDB(t)
	return repository.New(db), testutil.NewFixtures(t, db)
}

func TestDecrementStockIsConditional(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	supplier := fx.User(models.RoleFournisseur)
	product := fx.Product(supplier, 1000, 5)

	ok, err := repos.Products.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, fx.Stock(product.ID))

	ok, err = repos.Products.DecrementStock(ctx, product.ID, 3)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, fx.Stock(product.ID))

	ok, err = repos.Products.DecrementStock(ctx, 9999, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	supplier := fx.User(models.RoleFournisseur)
	product := fx.Product(supplier, 1000, 10)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sold := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repos.Products.DecrementStock(ctx, product.ID, 3)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				sold += 3
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 9, sold)
	assert.Equal(t, 1, fx.Stock(product.ID))
}

func TestUpdateDetailsLeavesStockAlone(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	supplier := fx.User(models.RoleFournisseur)
	product := fx.Product(supplier, 1000, 5)

	stale := *product
	_, err := repos.Products.DecrementStock(ctx, product.ID, 2)
	require.NoError(t, err)

	stale.Name = "Renamed"
	stale.Price = 1500
	require.NoError(t, repos.Products.UpdateDetails(ctx, &stale))

	got, err := repos.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, models.Money(1500), got.Price)
	assert.Equal(t, 3, got.Quantity)
}

func TestSequenceNextIsMonotonic(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repos.Sequences.Next(ctx, repository.SequenceOrders)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := repos.Sequences.Next(ctx, repository.SequenceDeliveries)
	require.NoError(t, err)
	assert.Equal(t, int64(1), other)
}

func TestSequenceRolledBackWithTransaction(t *testing.T) {
	repos, _ := setup(t)
	ctx := context.Background()

	_, err := repos.Sequences.Next(ctx, repository.SequenceOrders)
	require.NoError(t, err)

	err = repos.Transaction(ctx, func(tx *repository.Repositories) error {
		_, err := tx.Sequences.Next(ctx, repository.SequenceOrders)
		require.NoError(t, err)
		return gorm.ErrInvalidData
	})
	require.ErrorIs(t, err, gorm.ErrInvalidData)

	next, err := repos.Sequences.Next(ctx, repository.SequenceOrders)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestOrderCreateAndResolve(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	client := fx.User(models.RoleClient)
	supplier := fx.User(models.RoleFournisseur)
	product := fx.Product(supplier, 1000, 5)

	order := &models.Order{
		OrderNumber:     "ORD-1",
		ClientID:        client.ID,
		SupplierID:      supplier.ID,
		Status:          models.OrderPending,
		Items:           []models.OrderItem{{ProductID: product.ID, Quantity: 2, UnitPrice: 1000, Subtotal: 2000}},
		Subtotal:        2000,
		Taxes:           200,
		Total:           2200,
		ShippingAddress: testutil.Address(),
		OrderDate:       time.Now(),
	}
	require.NoError(t, repos.Orders.Create(ctx, order))

	got, err := repos.Orders.GetResolved(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Client)
	require.NotNil(t, got.Supplier)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].Product)
	assert.Equal(t, product.Name, got.Items[0].Product.Name)
	assert.Equal(t, testutil.Address(), got.ShippingAddress)

	items, err := repos.OrderItems.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestOrderListFiltersAndSorts(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	c1 := fx.User(models.RoleClient)
	c2 := fx.User(models.RoleClient)
	s := fx.User(models.RoleFournisseur)
	first := fx.Order(c1, s, models.OrderPending)
	second := fx.Order(c1, s, models.OrderPending)
	fx.Order(c2, s, models.OrderPending)

	byClient, err := repos.Orders.List(ctx, repository.OrderFilter{ClientID: c1.ID})
	require.NoError(t, err)
	require.Len(t, byClient, 2)
	assert.Equal(t, second.ID, byClient[0].ID)
	assert.Equal(t, first.ID, byClient[1].ID)

	bySupplier, err := repos.Orders.List(ctx, repository.OrderFilter{SupplierID: s.ID})
	require.NoError(t, err)
	assert.Len(t, bySupplier, 3)
}

func TestOrderSupplierAggregates(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	c := fx.User(models.RoleClient)
	s := fx.User(models.RoleFournisseur)
	fx.Order(c, s, models.OrderPending)
	fx.Order(c, s, models.OrderDelivered)
	fx.Order(c, s, models.OrderDelivered)

	total, err := repos.Orders.CountBySupplier(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	delivered, err := repos.Orders.CountBySupplier(ctx, s.ID, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, int64(2), delivered)

	revenue, err := repos.Orders.SumTotalBySupplier(ctx, s.ID, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.Money(2200), revenue)

	none, err := repos.Orders.SumTotalBySupplier(ctx, 9999, models.OrderDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.Money(0), none)
}

func TestDeliveryUniquePerOrder(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	c := fx.User(models.RoleClient)
	s := fx.User(models.RoleFournisseur)
	courier := fx.Courier()
	order := fx.Order(c, s, models.OrderShipped)

	first := &models.Delivery{OrderID: order.ID, DelivererID: courier.ID, Status: models.DeliveryPending, TrackingNumber: "TRK-1"}
	require.NoError(t, repos.Deliveries.Create(ctx, first))

	second := &models.Delivery{OrderID: order.ID, DelivererID: courier.ID, Status: models.DeliveryPending, TrackingNumber: "TRK-2"}
	assert.Error(t, repos.Deliveries.Create(ctx, second))

	exists, err := repos.Deliveries.ExistsForOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	got, err := repos.Deliveries.GetByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Order)
	assert.Equal(t, order.OrderNumber, got.Order.OrderNumber)

	count, err := repos.Deliveries.CountByDeliverer(ctx, courier.ID, models.DeliveryPending, models.DeliveryAssigned)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCategoryNameTaken(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	category := fx.Category()

	taken, err := repos.Categories.NameTaken(ctx, category.Name, 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repos.Categories.NameTaken(ctx, category.Name, category.ID)
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestCategoryUpdateWritesNamedColumnsOnly(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	category := fx.Category()

	first, second := *category, *category
	first.Description = "fresh produce"
	require.NoError(t, repos.Categories.Update(ctx, &first, "description"))
	second.Image = "veg.png"
	require.NoError(t, repos.Categories.Update(ctx, &second, "image"))

	got, err := repos.Categories.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, "fresh produce", got.Description)
	assert.Equal(t, "veg.png", got.Image)
	assert.Equal(t, category.Name, got.Name)

	second.Name = "ignored"
	require.NoError(t, repos.Categories.Update(ctx, &second))
	got, err = repos.Categories.GetByID(ctx, category.ID)
	require.NoError(t, err)
	assert.Equal(t, category.Name, got.Name)
}

func TestSupplierUpdateWritesNamedColumnsOnly(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	owner := fx.User(models.RoleFournisseur)
	supplier := &models.Supplier{Name: "Green Farms", Email: "farm@example.com", Phone: "0600000000"}
	require.NoError(t, repos.Suppliers.Create(ctx, supplier))

	first, second := *supplier, *supplier
	first.Phone = "0611111111"
	require.NoError(t, repos.Suppliers.Update(ctx, &first, "phone"))
	second.Address = testutil.Address()
	second.UserID = &owner.ID
	require.NoError(t, repos.Suppliers.Update(ctx, &second, append(models.AddressColumns, "user_id")...))

	got, err := repos.Suppliers.GetByID(ctx, supplier.ID)
	require.NoError(t, err)
	assert.Equal(t, "0611111111", got.Phone)
	assert.Equal(t, testutil.Address(), got.Address)
	require.NotNil(t, got.UserID)
	assert.Equal(t, owner.ID, *got.UserID)
	assert.Equal(t, "farm@example.com", got.Email)
}

func TestUserUpdateWritesNamedColumnsOnly(t *testing.T) {
	repos, fx := setup(t)
	ctx := context.Background()
	user := fx.User(models.RoleClient)

	first, second := *user, *user
	first.Status = models.UserSuspended
	require.NoError(t, repos.Users.Update(ctx, &first, "status"))
	second.Role = models.RoleFournisseur
	require.NoError(t, repos.Users.Update(ctx, &second, "role"))

	got, err := repos.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserSuspended, got.Status)
	assert.Equal(t, models.RoleFournisseur, got.Role)
	assert.Equal(t, user.Email, got.Email)
}
