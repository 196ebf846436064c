package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/pagination"
)

// ItemInput is one requested order line.
type ItemInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gte=1,lte=50"`
}

// AddressInput is the delivery address captured with the order.
type AddressInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"required,e164"`
	Line1   string `json:"line1" validate:"required,max=200"`
	Line2   string `json:"line2" validate:"max=200"`
	City    string `json:"city" validate:"required,max=100"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
}

// CreateInput is the order creation request. Total is the client's
// claimed grand total and is verified, never trusted.
type CreateInput struct {
	Items          []ItemInput     `json:"items" validate:"required,min=1,dive"`
	CouponCode     string          `json:"coupon_code"`
	PaymentMethod  string          `json:"payment_method" validate:"required,oneof=cod upi"`
	Address        AddressInput    `json:"address" validate:"required"`
	Total          decimal.Decimal `json:"total" validate:"required"`
	IdempotencyKey string          `json:"-"`
}

// UpdateStatusInput carries an admin status change.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=500"`
}

// ItemResponse is an order line snapshot.
type ItemResponse struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Unit        string          `json:"unit,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// TimelineResponse is one status history entry.
type TimelineResponse struct {
	Status    string    `json:"status"`
	Label     string    `json:"label"`
	Note      string    `json:"note,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// AddressResponse echoes the delivery address on an order.
type AddressResponse struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

// OrderResponse is the full order payload.
type OrderResponse struct {
	ID                string             `json:"id"`
	UserID            int64              `json:"user_id"`
	Status            string             `json:"status"`
	PaymentMethod     string             `json:"payment_method"`
	PaymentStatus     string             `json:"payment_status"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	DeliveryFee       decimal.Decimal    `json:"delivery_fee"`
	HandlingFee       decimal.Decimal    `json:"handling_fee"`
	Discount          decimal.Decimal    `json:"discount"`
	Total             decimal.Decimal    `json:"total"`
	CouponCode        string             `json:"coupon_code,omitempty"`
	Address           AddressResponse    `json:"address"`
	EstimatedDelivery time.Time          `json:"estimated_delivery"`
	ActualDelivery    *time.Time         `json:"actual_delivery,omitempty"`
	Items             []ItemResponse     `json:"items"`
	Timeline          []TimelineResponse `json:"timeline,omitempty"`
	CreatedAt         time.Time          `json:"created_at"`

	// Replayed marks a response served from an earlier order with the
	// same idempotency key. It drives the HTTP status, not the body.
	Replayed bool `json:"-"`
}

// ListResponse wraps an order page with pagination metadata.
type ListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}

func toOrderResponse(order models.Order) OrderResponse {
	resp := OrderResponse{
		ID:                order.ID,
		UserID:            order.UserID,
		Status:            order.Status.String(),
		PaymentMethod:     order.PaymentMethod.String(),
		PaymentStatus:     order.PaymentStatus.String(),
		Subtotal:          order.Subtotal,
		DeliveryFee:       order.DeliveryFee,
		HandlingFee:       order.HandlingFee,
		Discount:          order.Discount,
		Total:             order.Total,
		EstimatedDelivery: order.EstimatedDelivery,
		ActualDelivery:    order.ActualDelivery,
		CreatedAt:         order.CreatedAt,
		Address: AddressResponse{
			Name:    order.AddressName,
			Phone:   order.AddressPhone,
			Line1:   order.AddressLine1,
			Line2:   order.AddressLine2,
			City:    order.AddressCity,
			Pincode: order.AddressPincode,
		},
	}
	if order.CouponCode != nil {
		resp.CouponCode = *order.CouponCode
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, ItemResponse{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Unit:        item.Unit,
			Price:       item.Price,
			Quantity:    item.Quantity,
			Total:       item.Total,
		})
	}
	for _, entry := range order.Timeline {
		resp.Timeline = append(resp.Timeline, TimelineResponse{
			Status:    entry.Status.String(),
			Label:     entry.Label,
			Note:      entry.Note,
			Completed: entry.Completed,
			CreatedAt: entry.CreatedAt,
		})
	}
	return resp
}
