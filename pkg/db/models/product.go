package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a storefront listing. Price is the selling price,
// MRP the printed maximum retail price used to show savings.
type Product struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	Name        string          `gorm:"column:name;not null"`
	Description string          `gorm:"column:description;not null;default:''"`
	CategoryID  int64           `gorm:"column:category_id;not null;index"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	MRP         decimal.Decimal `gorm:"column:mrp;type:numeric(10,2);not null"`
	Unit        string          `gorm:"column:unit;not null;default:''"`
	ImageURL    string          `gorm:"column:image_url;not null;default:''"`
	Stock       int             `gorm:"column:stock;not null;default:0"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
