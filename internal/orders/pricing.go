package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/internal/offers"
	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

// tamperEpsilon is the largest tolerated gap between the client-claimed
// total and the server-computed one. Anything beyond it is treated as a
// stale or manipulated cart.
var tamperEpsilon = decimal.RequireFromString("0.01")

// ProductSource loads the active products a quote needs. Implementations
// may be bound to a transaction.
type ProductSource interface {
	FindActiveByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// OfferSource resolves a coupon code to an offer, nil when unknown.
type OfferSource interface {
	FindByCode(ctx context.Context, code string) (*models.Offer, error)
}

// QuoteLine is one requested order line.
type QuoteLine struct {
	ProductID int64
	Quantity  int
}

// QuoteInput is everything the calculator needs for one pricing pass.
type QuoteInput struct {
	Lines       []QuoteLine
	CouponCode  string
	ClientTotal *decimal.Decimal
}

// PricedLine is a line priced against the live catalog.
type PricedLine struct {
	Product  models.Product
	Quantity int
	Total    decimal.Decimal
}

// PriceQuote is the server-side pricing of an order request.
type PriceQuote struct {
	Lines        []PricedLine
	Offer        *models.Offer
	Subtotal     decimal.Decimal
	DeliveryFee  decimal.Decimal
	HandlingFee  decimal.Decimal
	Discount     decimal.Decimal
	FreeDelivery bool
	Total        decimal.Decimal
}

// Calculator prices order requests. It has no side effects; all reads
// go through the sources passed per call so callers can bind them to a
// transaction.
type Calculator struct {
	freeDeliveryThreshold decimal.Decimal
	deliveryFee           decimal.Decimal
	handlingFee           decimal.Decimal
	now                   func() time.Time
}

// NewCalculator parses the configured pricing constants.
func NewCalculator(cfg config.PricingConfig) (*Calculator, error) {
	threshold, err := decimal.NewFromString(cfg.FreeDeliveryThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing free delivery threshold")
	}
	fee, err := decimal.NewFromString(cfg.DefaultDeliveryFee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing default delivery fee")
	}
	handling, err := decimal.NewFromString(cfg.DefaultHandlingFee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing default handling fee")
	}
	return &Calculator{
		freeDeliveryThreshold: threshold,
		deliveryFee:           fee,
		handlingFee:           handling,
		now:                   time.Now,
	}, nil
}

// Quote prices the input against live products and the coupon, then
// verifies the client-claimed total when one is supplied.
func (c *Calculator) Quote(ctx context.Context, productSource ProductSource, offerSource OfferSource, input QuoteInput) (*PriceQuote, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	ids := make([]int64, 0, len(input.Lines))
	for _, line := range input.Lines {
		if line.Quantity < 1 || line.Quantity > 50 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 50").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		ids = append(ids, line.ProductID)
	}

	products, err := productSource.FindActiveByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading products")
	}
	byID := make(map[int64]models.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}

	quote := &PriceQuote{Subtotal: decimal.Zero}
	for _, line := range input.Lines {
		product, ok := byID[line.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product is not available").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
		if product.Stock < line.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]any{
					"product_id": product.ID,
					"available":  product.Stock,
					"requested":  line.Quantity,
				})
		}
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		quote.Lines = append(quote.Lines, PricedLine{
			Product:  product,
			Quantity: line.Quantity,
			Total:    lineTotal,
		})
		quote.Subtotal = quote.Subtotal.Add(lineTotal)
	}
	quote.Subtotal = quote.Subtotal.Round(2)

	quote.Discount = decimal.Zero
	if input.CouponCode != "" {
		offer, err := offerSource.FindByCode(ctx, input.CouponCode)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading coupon")
		}
		// An ineligible coupon does not block the order. The quote
		// proceeds without a discount and the attempt is not applied;
		// /offers/validate is where customers get the specific reason.
		if offers.CheckEligibility(offer, quote.Subtotal, c.now()) == nil {
			discount, freeDelivery := offers.ComputeDiscount(offer, quote.Subtotal)
			quote.Offer = offer
			quote.Discount = discount
			quote.FreeDelivery = freeDelivery
		}
	}

	quote.DeliveryFee = c.deliveryFee
	if quote.FreeDelivery || quote.Subtotal.GreaterThanOrEqual(c.freeDeliveryThreshold) {
		quote.DeliveryFee = decimal.Zero
	}
	quote.HandlingFee = c.handlingFee

	total := quote.Subtotal.
		Add(quote.DeliveryFee).
		Add(quote.HandlingFee).
		Sub(quote.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	quote.Total = total.Round(2)

	if input.ClientTotal != nil {
		diff := input.ClientTotal.Sub(quote.Total).Abs()
		if diff.GreaterThan(tamperEpsilon) {
			return nil, pkgerrors.New(pkgerrors.CodePriceMismatch,
				fmt.Sprintf("client total %s does not match server total %s", input.ClientTotal, quote.Total)).
				WithDetails(map[string]any{
					"client_total": input.ClientTotal.StringFixed(2),
					"server_total": quote.Total.StringFixed(2),
				})
		}
	}

	return quote, nil
}
