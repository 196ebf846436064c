package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/enums"
)

// Order is a placed customer order. Monetary columns are the totals the
// server computed at creation time; they never change afterwards.
type Order struct {
	ID                string              `gorm:"column:id;primaryKey"`
	UserID            int64               `gorm:"column:user_id;not null;index;uniqueIndex:idx_orders_user_idem"`
	Status            enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod     enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus     enums.PaymentStatus `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	Subtotal          decimal.Decimal     `gorm:"column:subtotal;type:numeric(10,2);not null"`
	DeliveryFee       decimal.Decimal     `gorm:"column:delivery_fee;type:numeric(10,2);not null"`
	HandlingFee       decimal.Decimal     `gorm:"column:handling_fee;type:numeric(10,2);not null"`
	Discount          decimal.Decimal     `gorm:"column:discount;type:numeric(10,2);not null"`
	Total             decimal.Decimal     `gorm:"column:total;type:numeric(10,2);not null"`
	CouponCode        *string             `gorm:"column:coupon_code"`
	AddressName       string              `gorm:"column:address_name;not null"`
	AddressPhone      string              `gorm:"column:address_phone;not null"`
	AddressLine1      string              `gorm:"column:address_line1;not null"`
	AddressLine2      string              `gorm:"column:address_line2;not null;default:''"`
	AddressCity       string              `gorm:"column:address_city;not null"`
	AddressPincode    string              `gorm:"column:address_pincode;not null"`
	EstimatedDelivery time.Time           `gorm:"column:estimated_delivery;not null"`
	ActualDelivery    *time.Time          `gorm:"column:actual_delivery"`
	IdempotencyKey    *string             `gorm:"column:idempotency_key;uniqueIndex:idx_orders_user_idem"`
	Items             []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Timeline          []OrderTimeline     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots a product line at purchase time so later catalog
// edits never rewrite order history.
type OrderItem struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     string          `gorm:"column:order_id;not null;index"`
	ProductID   int64           `gorm:"column:product_id;not null"`
	ProductName string          `gorm:"column:product_name;not null"`
	Unit        string          `gorm:"column:unit;not null;default:''"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(10,2);not null"`
}

// OrderTimeline is the append-only status history of an order.
type OrderTimeline struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID   string            `gorm:"column:order_id;not null;index"`
	Status    enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Label     string            `gorm:"column:label;not null"`
	Note      string            `gorm:"column:note;not null;default:''"`
	Completed bool              `gorm:"column:completed;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
}
