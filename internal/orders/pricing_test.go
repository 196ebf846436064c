package orders

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

type stubProducts map[int64]models.Product

func (s stubProducts) FindActiveByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	var out []models.Product
	for _, id := range ids {
		if product, ok := s[id]; ok {
			out = append(out, product)
		}
	}
	return out, nil
}

type stubOffers map[string]*models.Offer

func (s stubOffers) FindByCode(_ context.Context, code string) (*models.Offer, error) {
	return s[strings.ToUpper(code)], nil
}

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(config.PricingConfig{
		FreeDeliveryThreshold: "99",
		DefaultDeliveryFee:    "20",
		DefaultHandlingFee:    "0",
	})
	require.NoError(t, err)
	return calc
}

func product(id int64, price string, stock int) models.Product {
	return models.Product{
		ID:       id,
		Name:     "Product",
		Price:    decimal.RequireFromString(price),
		MRP:      decimal.RequireFromString(price),
		Unit:     "1 pc",
		Stock:    stock,
		IsActive: true,
	}
}

func percentOffer(code, value, maxDiscount string) *models.Offer {
	now := time.Now()
	offer := &models.Offer{
		ID:            1,
		Code:          code,
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.RequireFromString(value),
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(time.Hour),
		UsageLimit:    100,
		IsActive:      true,
	}
	if maxDiscount != "" {
		capped := decimal.RequireFromString(maxDiscount)
		offer.MaxDiscount = &capped
	}
	return offer
}

func TestQuoteAddsDeliveryFeeBelowThreshold(t *testing.T) {
	calc := newTestCalculator(t)
	products := stubProducts{1: product(1, "30", 10)}

	quote, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
		Lines: []QuoteLine{{ProductID: 1, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Equal(t, "60.00", quote.Subtotal.StringFixed(2))
	require.Equal(t, "20.00", quote.DeliveryFee.StringFixed(2))
	require.Equal(t, "80.00", quote.Total.StringFixed(2))
}

func TestQuoteFreeDeliveryAtThreshold(t *testing.T) {
	calc := newTestCalculator(t)
	products := stubProducts{1: product(1, "33", 10)}

	quote, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
		Lines: []QuoteLine{{ProductID: 1, Quantity: 3}},
	})
	require.NoError(t, err)
	require.Equal(t, "99.00", quote.Subtotal.StringFixed(2))
	require.True(t, quote.DeliveryFee.IsZero())
	require.Equal(t, "99.00", quote.Total.StringFixed(2))
}

func TestQuoteRejectsBadLines(t *testing.T) {
	calc := newTestCalculator(t)
	products := stubProducts{1: product(1, "30", 2)}

	t.Run("empty order", func(t *testing.T) {
		_, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{})
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	})

	t.Run("quantity out of range", func(t *testing.T) {
		_, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
			Lines: []QuoteLine{{ProductID: 1, Quantity: 51}},
		})
		require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	})

	t.Run("unknown product", func(t *testing.T) {
		_, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
			Lines: []QuoteLine{{ProductID: 404, Quantity: 1}},
		})
		require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
	})

	t.Run("insufficient stock", func(t *testing.T) {
		_, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
			Lines: []QuoteLine{{ProductID: 1, Quantity: 3}},
		})
		require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	})
}

func TestQuoteAppliesCoupon(t *testing.T) {
	calc := newTestCalculator(t)
	products := stubProducts{1: product(1, "50", 10)}

	t.Run("percentage with cap", func(t *testing.T) {
		offerSource := stubOffers{"SAVE10": percentOffer("SAVE10", "10", "8")}
		quote, err := calc.Quote(context.Background(), products, offerSource, QuoteInput{
			Lines:      []QuoteLine{{ProductID: 1, Quantity: 2}},
			CouponCode: "save10",
		})
		require.NoError(t, err)
		require.Equal(t, "8.00", quote.Discount.StringFixed(2))
		require.Equal(t, "92.00", quote.Total.StringFixed(2))
	})

	t.Run("free delivery coupon zeroes the fee", func(t *testing.T) {
		now := time.Now()
		offerSource := stubOffers{"FREEDEL": {
			ID:           2,
			Code:         "FREEDEL",
			DiscountType: enums.DiscountTypeFreeDelivery,
			ValidFrom:    now.Add(-time.Hour),
			ValidUntil:   now.Add(time.Hour),
			UsageLimit:   100,
			IsActive:     true,
		}}
		quote, err := calc.Quote(context.Background(), products, offerSource, QuoteInput{
			Lines:      []QuoteLine{{ProductID: 1, Quantity: 1}},
			CouponCode: "FREEDEL",
		})
		require.NoError(t, err)
		require.True(t, quote.Discount.IsZero())
		require.True(t, quote.DeliveryFee.IsZero())
		require.Equal(t, "50.00", quote.Total.StringFixed(2))
	})

	t.Run("unknown coupon is dropped silently", func(t *testing.T) {
		quote, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
			Lines:      []QuoteLine{{ProductID: 1, Quantity: 1}},
			CouponCode: "GHOST",
		})
		require.NoError(t, err)
		require.Nil(t, quote.Offer)
		require.True(t, quote.Discount.IsZero())
		require.Equal(t, "70.00", quote.Total.StringFixed(2))
	})

	t.Run("expired coupon is dropped silently", func(t *testing.T) {
		expired := percentOffer("OLD10", "10", "")
		expired.ValidUntil = time.Now().Add(-time.Hour)
		quote, err := calc.Quote(context.Background(), products, stubOffers{"OLD10": expired}, QuoteInput{
			Lines:      []QuoteLine{{ProductID: 1, Quantity: 2}},
			CouponCode: "old10",
		})
		require.NoError(t, err)
		require.Nil(t, quote.Offer)
		require.True(t, quote.Discount.IsZero())
		require.Equal(t, "100.00", quote.Total.StringFixed(2))
	})

	t.Run("dropped coupon still tamper-checks against the full total", func(t *testing.T) {
		expired := percentOffer("OLD10", "10", "")
		expired.ValidUntil = time.Now().Add(-time.Hour)
		claimed := decimal.RequireFromString("90.00")
		_, err := calc.Quote(context.Background(), products, stubOffers{"OLD10": expired}, QuoteInput{
			Lines:       []QuoteLine{{ProductID: 1, Quantity: 2}},
			CouponCode:  "OLD10",
			ClientTotal: &claimed,
		})
		require.Equal(t, pkgerrors.CodePriceMismatch, pkgerrors.As(err).Code())
	})
}

func TestQuoteTamperCheck(t *testing.T) {
	calc := newTestCalculator(t)
	products := stubProducts{1: product(1, "30", 10)}
	lines := []QuoteLine{{ProductID: 1, Quantity: 2}}

	t.Run("within epsilon passes", func(t *testing.T) {
		claimed := decimal.RequireFromString("80.01")
		_, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
			Lines:       lines,
			ClientTotal: &claimed,
		})
		require.NoError(t, err)
	})

	t.Run("beyond epsilon rejects", func(t *testing.T) {
		claimed := decimal.RequireFromString("70")
		_, err := calc.Quote(context.Background(), products, stubOffers{}, QuoteInput{
			Lines:       lines,
			ClientTotal: &claimed,
		})
		appErr := pkgerrors.As(err)
		require.Equal(t, pkgerrors.CodePriceMismatch, appErr.Code())

		meta := pkgerrors.MetadataFor(appErr.Code())
		require.Equal(t, "Price mismatch detected. Please refresh and try again.", meta.PublicMessage)
	})
}
