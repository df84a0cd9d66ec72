package policy

import (
	"testing"

	"supply_manager/internal/apperr"
	"supply_manager/internal/models"

	"github.com/stretchr/testify/assert"
)

var (
	admin    = Principal{UserID: 1, Role: models.RoleAdmin}
	client   = Principal{UserID: 2, Role: models.RoleClient}
	supplier = Principal{UserID: 3, Role: models.RoleFournisseur}
	stranger = Principal{UserID: 4, Role: models.RoleFournisseur}
	courier  = Principal{UserID: 5, Role: models.RoleClient}
)

func kind(err error) apperr.Kind {
	return apperr.KindOf(err)
}

func TestCanCreateOrder(t *testing.T) {
	assert.NoError(t, CanCreateOrder(client))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanCreateOrder(admin)))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanCreateOrder(supplier)))
}

func TestCanViewOrder(t *testing.T) {
	order := &models.Order{ClientID: client.UserID, SupplierID: supplier.UserID}

	assert.NoError(t, CanViewOrder(admin, order))
	assert.NoError(t, CanViewOrder(client, order))
	assert.NoError(t, CanViewOrder(supplier, order))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanViewOrder(stranger, order)))
}

func TestCanTransitionOrder(t *testing.T) {
	order := &models.Order{ClientID: client.UserID, SupplierID: supplier.UserID, Status: models.OrderPending}

	assert.NoError(t, CanTransitionOrder(supplier, order, models.OrderConfirmed))
	assert.NoError(t, CanTransitionOrder(admin, order, models.OrderCancelled))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanTransitionOrder(client, order, models.OrderConfirmed)))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanTransitionOrder(stranger, order, models.OrderConfirmed)))
	assert.Equal(t, apperr.KindInvalidTransition, kind(CanTransitionOrder(supplier, order, models.OrderShipped)))

	order.Status = models.OrderDelivered
	assert.Equal(t, apperr.KindInvalidTransition, kind(CanTransitionOrder(admin, order, models.OrderCancelled)))
}

func TestDeliveryChecks(t *testing.T) {
	delivery := &models.Delivery{DelivererID: courier.UserID, Status: models.DeliveryPending}

	assert.NoError(t, CanCreateDelivery(admin))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanCreateDelivery(supplier)))

	assert.NoError(t, CanViewDelivery(courier, delivery))
	assert.NoError(t, CanViewDelivery(admin, delivery))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanViewDelivery(client, delivery)))

	assert.NoError(t, CanUpdateDelivery(courier, delivery, models.DeliveryAssigned))
	assert.NoError(t, CanUpdateDelivery(admin, delivery, models.DeliveryFailed))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanUpdateDelivery(stranger, delivery, models.DeliveryAssigned)))
	assert.Equal(t, apperr.KindInvalidTransition, kind(CanUpdateDelivery(courier, delivery, models.DeliveryDelivered)))

	assert.NoError(t, CanSignDelivery(courier, delivery))
	assert.Equal(t, apperr.KindUnauthorized, kind(CanSignDelivery(admin, delivery)))
}

func TestCanViewOrderDelivery(t *testing.T) {
	order := &models.Order{ClientID: client.UserID, SupplierID: supplier.UserID}
	delivery := &models.Delivery{DelivererID: courier.UserID}

	for _, p := range []Principal{admin, client, supplier, courier} {
		assert.NoError(t, CanViewOrderDelivery(p, order, delivery))
	}
	assert.Error(t, CanViewOrderDelivery(stranger, order, delivery))
}

func TestProductChecks(t *testing.T) {
	product := &models.Product{SupplierID: supplier.UserID}

	assert.NoError(t, CanManageProduct(admin, product))
	assert.NoError(t, CanManageProduct(supplier, product))
	assert.Error(t, CanManageProduct(stranger, product))
	assert.Error(t, CanManageProduct(client, product))
	assert.Error(t, CanCreateProduct(Principal{UserID: 2, Role: models.RoleClient}, 2))
}

func TestUserChecks(t *testing.T) {
	assert.NoError(t, CanManageUsers(admin))
	assert.Error(t, CanManageUsers(client))
	assert.NoError(t, CanViewUser(client, client.UserID))
	assert.Error(t, CanViewUser(client, supplier.UserID))
	assert.NoError(t, CanViewSupplierStats(supplier))
	assert.Error(t, CanViewSupplierStats(client))
}
