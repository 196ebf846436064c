package offers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// CheckEligibility verifies the offer can be applied to an order with the
// given subtotal at the given time. The returned errors carry messages a
// storefront can show directly.
func CheckEligibility(offer *models.Offer, subtotal decimal.Decimal, now time.Time) error {
	if offer == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if !offer.IsActive {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon is no longer active")
	}
	if now.Before(offer.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active yet")
	}
	if now.After(offer.ValidUntil) {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if offer.UsageLimit > 0 && offer.UsedCount >= offer.UsageLimit {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}
	if subtotal.LessThan(offer.MinOrderValue) {
		return pkgerrors.New(pkgerrors.CodeValidation, "order value below coupon minimum").
			WithDetails(map[string]any{"min_order_value": offer.MinOrderValue.StringFixed(2)})
	}
	return nil
}

// ComputeDiscount resolves the money discount and free delivery flag for
// an eligible offer against the subtotal. Results are rounded to 2dp and
// the discount never exceeds the subtotal.
func ComputeDiscount(offer *models.Offer, subtotal decimal.Decimal) (decimal.Decimal, bool) {
	if offer == nil {
		return decimal.Zero, false
	}

	var discount decimal.Decimal
	freeDelivery := false

	switch offer.DiscountType {
	case enums.DiscountTypePercentage:
		discount = subtotal.Mul(offer.DiscountValue).Div(hundred)
		if offer.MaxDiscount != nil && discount.GreaterThan(*offer.MaxDiscount) {
			discount = *offer.MaxDiscount
		}
	case enums.DiscountTypeFixed:
		discount = offer.DiscountValue
	case enums.DiscountTypeFreeDelivery:
		freeDelivery = true
	}

	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount.Round(2), freeDelivery
}
