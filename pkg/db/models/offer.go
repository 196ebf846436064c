package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/enums"
)

// Offer is a coupon customers can apply at checkout. Codes are stored
// upper-cased so lookups are case-insensitive.
type Offer struct {
	ID            int64              `gorm:"column:id;primaryKey;autoIncrement"`
	Code          string             `gorm:"column:code;not null;uniqueIndex"`
	Description   string             `gorm:"column:description;not null;default:''"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(10,2);not null;default:0"`
	MaxDiscount   *decimal.Decimal   `gorm:"column:max_discount;type:numeric(10,2)"`
	MinOrderValue decimal.Decimal    `gorm:"column:min_order_value;type:numeric(10,2);not null;default:0"`
	ValidFrom     time.Time          `gorm:"column:valid_from;not null"`
	ValidUntil    time.Time          `gorm:"column:valid_until;not null"`
	UsageLimit    int                `gorm:"column:usage_limit;not null;default:0"`
	UsedCount     int                `gorm:"column:used_count;not null;default:0"`
	IsActive      bool               `gorm:"column:is_active;not null"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
