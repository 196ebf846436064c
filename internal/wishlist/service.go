package wishlist

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

// ServiceParams carries the dependencies for the wishlist service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes the authenticated user's wishlist.
type Service interface {
	List(ctx context.Context, userID int64) ([]EntryResponse, error)
	Add(ctx context.Context, userID, productID int64) error
	Remove(ctx context.Context, userID, productID int64) error
}

// EntryResponse is a wishlist entry enriched with live product data.
type EntryResponse struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"in_stock"`
	Available bool            `json:"available"`
	AddedAt   time.Time       `json:"added_at"`
}

// AddInput carries a wishlist add request.
type AddInput struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

type service struct {
	repo *Repository
}

// NewService constructs the wishlist service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wishlist repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]EntryResponse, error) {
	entries, err := s.repo.ListEntries(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading wishlist")
	}
	out := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp := EntryResponse{
			ProductID: entry.Item.ProductID,
			AddedAt:   entry.Item.CreatedAt,
		}
		if entry.Product != nil {
			resp.Name = entry.Product.Name
			resp.ImageURL = entry.Product.ImageURL
			resp.Unit = entry.Product.Unit
			resp.Price = entry.Product.Price
			resp.InStock = entry.Product.Stock > 0
			resp.Available = true
		}
		out = append(out, resp)
	}
	return out, nil
}

// Add is idempotent: saving an already-saved product succeeds without
// duplicating the row.
func (s *service) Add(ctx context.Context, userID, productID int64) error {
	var product models.Product
	err := s.repo.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}
	if err := s.repo.Add(ctx, userID, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving wishlist entry")
	}
	return nil
}

func (s *service) Remove(ctx context.Context, userID, productID int64) error {
	err := s.repo.Remove(ctx, userID, productID)
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wishlist entry not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing wishlist entry")
	}
	return nil
}
