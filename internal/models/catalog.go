package models

import "time"

type Category struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Type        string    `json:"type"`
	Description string    `json:"description" gorm:"type:text"`
	Image       string    `json:"image"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Supplier is a supplier company profile, optionally owned by a fournisseur account.
type Supplier struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Address   Address   `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	UserID    *uint     `json:"userId,omitempty" gorm:"index"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Product struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Image       string    `json:"image"`
	Price       Money     `json:"price" gorm:"not null"`
	Quantity    int       `json:"quantity" gorm:"not null;default:0"`
	CategoryID  uint      `json:"categoryId" gorm:"index;not null"`
	Category    *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	SupplierID  uint      `json:"supplierId" gorm:"index;not null"`
	Supplier    *User     `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
