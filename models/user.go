package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer  UserRole = "customer"
	RoleAdmin     UserRole = "admin"
	RoleModerator UserRole = "moderator"
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// Permission is a capability tag carried by a user
type Permission string

const (
	PermReadFood     Permission = "read_food"
	PermCreateFood   Permission = "create_food"
	PermUpdateFood   Permission = "update_food"
	PermDeleteFood   Permission = "delete_food"
	PermManageUsers  Permission = "manage_users"
	PermViewOrders   Permission = "view_orders"
	PermManageOrders Permission = "manage_orders"
)

type User struct {
	ID             uint         `json:"_id" gorm:"primaryKey"`
	Name           string       `json:"name" gorm:"not null"`
	Email          string       `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string       `json:"-" gorm:"not null"`
	Role           UserRole     `json:"role" gorm:"not null;default:'customer'"`
	Permissions    []Permission `json:"permissions" gorm:"serializer:json"`
	IsActive       bool         `json:"isActive" gorm:"not null"`
	LastLogin      *time.Time   `json:"lastLogin"`
	Phone          string       `json:"phone"`
	Address        string       `json:"address"`
	ProfilePicture string       `json:"profilePicture"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
