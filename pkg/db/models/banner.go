package models

import "time"

// Banner is a promotional tile shown on the storefront home screen.
type Banner struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Title        string     `gorm:"column:title;not null"`
	ImageURL     string     `gorm:"column:image_url;not null"`
	LinkURL      string     `gorm:"column:link_url;not null;default:''"`
	DisplayOrder int        `gorm:"column:display_order;not null;default:0"`
	StartsAt     *time.Time `gorm:"column:starts_at"`
	EndsAt       *time.Time `gorm:"column:ends_at"`
	IsActive     bool       `gorm:"column:is_active;not null"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
