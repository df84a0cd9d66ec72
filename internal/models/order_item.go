package models

// OrderItem is a line of an order. UnitPrice is the product price when the order was placed.
type OrderItem struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	OrderID   uint     `json:"orderId" gorm:"index;not null"`
	ProductID uint     `json:"productId" gorm:"index;not null"`
	Product   *Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int      `json:"quantity" gorm:"not null"`
	UnitPrice Money    `json:"price" gorm:"not null"`
	Subtotal  Money    `json:"subtotal" gorm:"not null"`
}

// Totals holds the computed amounts of an order.
type Totals struct {
	Subtotal Money
	Taxes    Money
	Total    Money
}

// ComputeTotals prices the lines and derives subtotal, taxes and total.
// Each line's Subtotal is filled in from UnitPrice and Quantity.
func ComputeTotals(items []OrderItem) Totals {
	var subtotal Money
	for i := range items {
		items[i].Subtotal = items[i].UnitPrice.Times(items[i].Quantity)
		subtotal += items[i].Subtotal
	}
	taxes := subtotal.Percent(TaxRate)
	return Totals{Subtotal: subtotal, Taxes: taxes, Total: subtotal + taxes}
}
