package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddItemInput carries a cart upsert request.
type AddItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=50"`
}

// SetQuantityInput carries a quantity change for an existing line.
type SetQuantityInput struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=50"`
}

// ItemResponse is a cart line enriched with live product data.
// Available is false when the product has been removed from sale.
type ItemResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	InStock   bool            `json:"in_stock"`
	Available bool            `json:"available"`
	AddedAt   time.Time       `json:"added_at"`
}

// Quote is the server-computed cart pricing summary.
type Quote struct {
	Subtotal              decimal.Decimal `json:"subtotal"`
	DeliveryFee           decimal.Decimal `json:"delivery_fee"`
	HandlingFee           decimal.Decimal `json:"handling_fee"`
	Total                 decimal.Decimal `json:"total"`
	FreeDeliveryThreshold decimal.Decimal `json:"free_delivery_threshold"`
}

// CartResponse is the full cart payload.
type CartResponse struct {
	Items []ItemResponse `json:"items"`
	Quote Quote          `json:"quote"`
}
