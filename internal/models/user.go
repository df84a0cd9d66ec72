package models

import (
	"strings"
	"time"
)

type User struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	FirstName    string     `json:"firstName" gorm:"not null"`
	LastName     string     `json:"lastName" gorm:"not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"column:password;not null"`
	Role         Role       `json:"role" gorm:"type:varchar(20);not null;default:'client'"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	Courier      bool       `json:"courier" gorm:"default:false"`
	Address      Address    `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	Phone        string     `json:"phone"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleClient      Role = "client"
	RoleFournisseur Role = "fournisseur"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClient, RoleFournisseur:
		return true
	}
	return false
}

type UserStatus string

const (
	UserActive    UserStatus = "active"
	UserInactive  UserStatus = "inactive"
	UserSuspended UserStatus = "suspended"
)

func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserInactive, UserSuspended:
		return true
	}
	return false
}

// Address is embedded by users, orders and deliveries.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// AddressColumns are the columns of an Address embedded with the address_ prefix.
var AddressColumns = []string{"address_street", "address_city", "address_postal_code", "address_country"}

// Complete reports whether every field is filled in.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Street) != "" &&
		strings.TrimSpace(a.City) != "" &&
		strings.TrimSpace(a.PostalCode) != "" &&
		strings.TrimSpace(a.Country) != ""
}
