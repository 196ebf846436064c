package models

import (
	"time"

	"github.com/quickcart/quickcart-backend/pkg/enums"
)

// User represents the canonical identity entity. Customers sign in with
// a phone number and OTP so the password hash is only set for admins.
type User struct {
	ID           int64          `gorm:"column:id;primaryKey;autoIncrement"`
	Phone        string         `gorm:"column:phone;type:text;not null;uniqueIndex"`
	Name         string         `gorm:"column:name;not null;default:''"`
	Email        *string        `gorm:"column:email"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	PasswordHash *string        `gorm:"column:password_hash"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == enums.UserRoleAdmin
}
