package models

import "gorm.io/gorm"

// UserRole distinguishes regular customers from back-office administrators.
type UserRole string

const (
	RoleUser  UserRole = "USER"
	RoleAdmin UserRole = "ADMIN"
)

// User represents a registered customer or administrator of the store.
type User struct {
	ID         string   `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name       string   `json:"name" validate:"required,min=2,max=100"`
	Email      string   `json:"email" gorm:"uniqueIndex;type:varchar(255)" validate:"required,email"`
	Password   string   `gorm:"type:varchar(255)" validate:"required,min=6"` // No json tag for security
	Role       UserRole `json:"role" gorm:"type:varchar(10);default:USER"`
	gorm.Model          // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
