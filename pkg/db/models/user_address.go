package models

import "time"

// UserAddress is a saved delivery address. At most one row per user
// carries is_default; the repository clears siblings when it changes.
type UserAddress struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    int64     `gorm:"column:user_id;not null;index:idx_user_addresses_user_id"`
	Type      string    `gorm:"column:type;not null"`
	Line1     string    `gorm:"column:line1;not null"`
	Line2     string    `gorm:"column:line2;not null"`
	City      string    `gorm:"column:city;not null"`
	State     string    `gorm:"column:state;not null"`
	Pincode   string    `gorm:"column:pincode;not null"`
	IsDefault bool      `gorm:"column:is_default;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
