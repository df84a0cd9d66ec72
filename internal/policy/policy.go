// Package policy decides what an authenticated principal may do. Every check is a
// pure function of the principal and the already-loaded entities, so handlers and
// services resolve the principal once and ask here instead of branching on roles.
package policy

import (
	"supply_manager/internal/apperr"
	"supply_manager/internal/models"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID uint
	Role   models.Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == models.RoleAdmin
}

func notAuthorized() error {
	return apperr.Unauthorized("Not authorized")
}

// RequireRole fails unless the principal has one of the roles.
func RequireRole(p Principal, msg string, roles ...models.Role) error {
	for _, role := range roles {
		if p.Role == role {
			return nil
		}
	}
	return apperr.Unauthorized(msg)
}

func CanCreateOrder(p Principal) error {
	return RequireRole(p, "Only clients can create orders", models.RoleClient)
}

func CanViewOrder(p Principal, order *models.Order) error {
	if p.IsAdmin() || order.InvolvesUser(p.UserID) {
		return nil
	}
	return notAuthorized()
}

// CanTransitionOrder checks both who may move the order and whether the move is legal.
func CanTransitionOrder(p Principal, order *models.Order, next models.OrderStatus) error {
	if !p.IsAdmin() && order.SupplierID != p.UserID {
		return notAuthorized()
	}
	if !order.Status.CanTransitionTo(next) {
		return apperr.InvalidTransition(string(order.Status), string(next))
	}
	return nil
}

func CanViewSupplierStats(p Principal) error {
	return RequireRole(p, "Access denied", models.RoleFournisseur)
}

func CanCreateDelivery(p Principal) error {
	return RequireRole(p, "Access denied. Admins only.", models.RoleAdmin)
}

func CanViewDelivery(p Principal, delivery *models.Delivery) error {
	if p.IsAdmin() || delivery.DelivererID == p.UserID {
		return nil
	}
	return notAuthorized()
}

// CanViewOrderDelivery lets the people involved in the order follow its delivery.
func CanViewOrderDelivery(p Principal, order *models.Order, delivery *models.Delivery) error {
	if p.IsAdmin() || order.InvolvesUser(p.UserID) || delivery.DelivererID == p.UserID {
		return nil
	}
	return notAuthorized()
}

func CanUpdateDelivery(p Principal, delivery *models.Delivery, next models.DeliveryStatus) error {
	if !p.IsAdmin() && delivery.DelivererID != p.UserID {
		return notAuthorized()
	}
	if !delivery.Status.CanTransitionTo(next) {
		return apperr.InvalidTransition(string(delivery.Status), string(next))
	}
	return nil
}

// CanSignDelivery is reserved to the assigned deliverer. Admins cannot sign for them.
func CanSignDelivery(p Principal, delivery *models.Delivery) error {
	if delivery.DelivererID != p.UserID {
		return notAuthorized()
	}
	return nil
}

func CanManageCategories(p Principal) error {
	return RequireRole(p, "Access denied. Admins only.", models.RoleAdmin)
}

func CanManageSuppliers(p Principal) error {
	return RequireRole(p, "Access denied. Admins only.", models.RoleAdmin)
}

// CanCreateProduct allows admins, and fournisseurs listing their own products.
func CanCreateProduct(p Principal, supplierID uint) error {
	if p.IsAdmin() {
		return nil
	}
	if p.Role == models.RoleFournisseur && p.UserID == supplierID {
		return nil
	}
	return notAuthorized()
}

func CanManageProduct(p Principal, product *models.Product) error {
	return CanCreateProduct(p, product.SupplierID)
}

func CanManageUsers(p Principal) error {
	return RequireRole(p, "Access denied. Admins only.", models.RoleAdmin)
}

func CanViewUser(p Principal, userID uint) error {
	if p.IsAdmin() || p.UserID == userID {
		return nil
	}
	return notAuthorized()
}
