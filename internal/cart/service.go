package cart

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/config"
	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

// Quantity bounds enforced on every cart write.
const (
	MinQuantity = 1
	MaxQuantity = 50
)

// ServiceParams carries the dependencies for the cart service.
type ServiceParams struct {
	Repo    *Repository
	Pricing config.PricingConfig
}

// Service exposes cart reads and writes for the authenticated user.
type Service interface {
	Get(ctx context.Context, userID int64) (*CartResponse, error)
	Add(ctx context.Context, userID int64, input AddItemInput) (*CartResponse, error)
	SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*CartResponse, error)
	Remove(ctx context.Context, userID, productID int64) (*CartResponse, error)
	Clear(ctx context.Context, userID int64) error
}

type service struct {
	repo                  *Repository
	freeDeliveryThreshold decimal.Decimal
	deliveryFee           decimal.Decimal
	handlingFee           decimal.Decimal
}

// NewService constructs the cart service. Pricing strings come from
// configuration and must parse as decimals.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	threshold, err := decimal.NewFromString(params.Pricing.FreeDeliveryThreshold)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing free delivery threshold")
	}
	fee, err := decimal.NewFromString(params.Pricing.DefaultDeliveryFee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing default delivery fee")
	}
	handling, err := decimal.NewFromString(params.Pricing.DefaultHandlingFee)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "parsing default handling fee")
	}
	return &service{
		repo:                  params.Repo,
		freeDeliveryThreshold: threshold,
		deliveryFee:           fee,
		handlingFee:           handling,
	}, nil
}

func (s *service) Get(ctx context.Context, userID int64) (*CartResponse, error) {
	lines, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading cart")
	}
	return s.buildResponse(lines), nil
}

func (s *service) Add(ctx context.Context, userID int64, input AddItemInput) (*CartResponse, error) {
	if err := validateQuantity(input.Quantity); err != nil {
		return nil, err
	}
	product, err := s.loadSellableProduct(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock")
	}
	if err := s.repo.Upsert(ctx, userID, input.ProductID, input.Quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving cart line")
	}
	return s.Get(ctx, userID)
}

func (s *service) SetQuantity(ctx context.Context, userID, productID int64, quantity int) (*CartResponse, error) {
	if quantity == 0 {
		return s.Remove(ctx, userID, productID)
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if err := s.repo.SetQuantity(ctx, userID, productID, quantity); err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating cart line")
	}
	return s.Get(ctx, userID)
}

func (s *service) Remove(ctx context.Context, userID, productID int64) (*CartResponse, error) {
	if err := s.repo.Remove(ctx, userID, productID); err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing cart line")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	if err := s.repo.Clear(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clearing cart")
	}
	return nil
}

func (s *service) loadSellableProduct(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	err := s.repo.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if IsNotFound(err) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	return &product, nil
}

// buildResponse prices the cart with live product data. Lines whose
// product vanished are reported but contribute nothing to the quote.
func (s *service) buildResponse(lines []Line) *CartResponse {
	items := make([]ItemResponse, 0, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		item := ItemResponse{
			ProductID: line.Item.ProductID,
			Quantity:  line.Item.Quantity,
			AddedAt:   line.Item.CreatedAt,
		}
		if line.Product != nil {
			lineTotal := line.Product.Price.Mul(decimal.NewFromInt(int64(line.Item.Quantity))).Round(2)
			item.Name = line.Product.Name
			item.ImageURL = line.Product.ImageURL
			item.Unit = line.Product.Unit
			item.Price = line.Product.Price
			item.InStock = line.Product.Stock >= line.Item.Quantity
			item.LineTotal = lineTotal
			item.Available = true
			subtotal = subtotal.Add(lineTotal)
		}
		items = append(items, item)
	}

	deliveryFee := s.deliveryFee
	if subtotal.IsZero() || subtotal.GreaterThanOrEqual(s.freeDeliveryThreshold) {
		deliveryFee = decimal.Zero
	}
	handlingFee := s.handlingFee
	if subtotal.IsZero() {
		handlingFee = decimal.Zero
	}

	return &CartResponse{
		Items: items,
		Quote: Quote{
			Subtotal:              subtotal.Round(2),
			DeliveryFee:           deliveryFee.Round(2),
			HandlingFee:           handlingFee.Round(2),
			Total:                 subtotal.Add(deliveryFee).Add(handlingFee).Round(2),
			FreeDeliveryThreshold: s.freeDeliveryThreshold,
		},
	}
}

func validateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be between 1 and 50")
	}
	return nil
}
