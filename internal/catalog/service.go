package catalog

import (
	"context"
	goerrors "errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
	"github.com/quickcart/quickcart-backend/pkg/pagination"
)

// ServiceParams carries the dependencies for the catalog service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes catalog reads and admin catalog management.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryResponse, error)
	ListProducts(ctx context.Context, filters ProductFilters, params pagination.Params) (*ProductListResponse, error)
	GetProduct(ctx context.Context, id int64) (*ProductResponse, error)

	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryResponse, error)
	UpdateCategory(ctx context.Context, id int64, input UpdateCategoryInput) (*CategoryResponse, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductResponse, error)
	UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*ProductResponse, error)
	DeleteProduct(ctx context.Context, id int64) error
}

type service struct {
	repo *Repository
}

// NewService constructs the catalog service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "catalog repository is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.repo.ListActiveCategories(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryResponse(category))
	}
	return out, nil
}

func (s *service) ListProducts(ctx context.Context, filters ProductFilters, params pagination.Params) (*ProductListResponse, error) {
	params = params.Normalize()
	products, total, err := s.repo.ListProducts(ctx, filters, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}
	out := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		out = append(out, toProductResponse(product))
	}
	return &ProductListResponse{
		Products: out,
		Meta: pagination.Meta{
			Page:       params.Page,
			Limit:      params.Limit,
			TotalCount: total,
		},
	}, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*ProductResponse, error) {
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "fetching product")
	}
	if product == nil || !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	resp := toProductResponse(*product)
	return &resp, nil
}

func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryResponse, error) {
	category := &models.Category{
		Name:         strings.TrimSpace(input.Name),
		Slug:         normalizeSlug(input.Slug),
		ImageURL:     input.ImageURL,
		DisplayOrder: input.DisplayOrder,
		IsActive:     true,
	}
	if category.Name == "" || category.Slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name and slug are required")
	}
	created, err := s.repo.CreateCategory(ctx, category)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	resp := toCategoryResponse(*created)
	return &resp, nil
}

func (s *service) UpdateCategory(ctx context.Context, id int64, input UpdateCategoryInput) (*CategoryResponse, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Slug != nil {
		updates["slug"] = normalizeSlug(*input.Slug)
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.DisplayOrder != nil {
		updates["display_order"] = *input.DisplayOrder
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.UpdateCategory(ctx, id, updates); err != nil {
		return nil, wrapNotFound(err, "category")
	}
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil || category == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading category")
	}
	resp := toCategoryResponse(*category)
	return &resp, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductResponse, error) {
	if err := validateProductPricing(input.Price, input.MRP); err != nil {
		return nil, err
	}
	category, err := s.repo.FindCategoryByID(ctx, input.CategoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking category")
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
	}
	mrp := input.MRP
	if mrp.IsZero() {
		mrp = input.Price
	}
	product := &models.Product{
		CategoryID:  input.CategoryID,
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		Price:       input.Price.Round(2),
		MRP:         mrp.Round(2),
		Unit:        strings.TrimSpace(input.Unit),
		Stock:       input.Stock,
		IsActive:    true,
	}
	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	resp := toProductResponse(*created)
	return &resp, nil
}

func (s *service) UpdateProduct(ctx context.Context, id int64, input UpdateProductInput) (*ProductResponse, error) {
	updates := map[string]any{}
	if input.CategoryID != nil {
		category, err := s.repo.FindCategoryByID(ctx, *input.CategoryID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking category")
		}
		if category == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
		updates["category_id"] = *input.CategoryID
	}
	if input.Name != nil {
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if input.Price != nil {
		if input.Price.IsNegative() || input.Price.IsZero() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = input.Price.Round(2)
	}
	if input.MRP != nil {
		if input.MRP.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "mrp must not be negative")
		}
		updates["mrp"] = input.MRP.Round(2)
	}
	if input.Unit != nil {
		updates["unit"] = strings.TrimSpace(*input.Unit)
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must not be negative")
		}
		updates["stock"] = *input.Stock
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if input.Price != nil || input.MRP != nil {
		current, err := s.repo.FindProductByID(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
		}
		if current == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		price, mrp := current.Price, current.MRP
		if input.Price != nil {
			price = input.Price.Round(2)
		}
		if input.MRP != nil {
			mrp = input.MRP.Round(2)
		}
		if mrp.LessThan(price) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "mrp must be at least the selling price")
		}
	}
	if err := s.repo.UpdateProduct(ctx, id, updates); err != nil {
		return nil, wrapNotFound(err, "product")
	}
	product, err := s.repo.FindProductByID(ctx, id)
	if err != nil || product == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading product")
	}
	resp := toProductResponse(*product)
	return &resp, nil
}

// DeleteProduct deactivates a product. Rows stay in place so order
// history keeps resolving product snapshots.
func (s *service) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.repo.UpdateProduct(ctx, id, map[string]any{"is_active": false}); err != nil {
		return wrapNotFound(err, "product")
	}
	return nil
}

func validateProductPricing(price, mrp decimal.Decimal) error {
	if price.IsNegative() || price.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if mrp.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "mrp must not be negative")
	}
	if !mrp.IsZero() && mrp.LessThan(price) {
		return pkgerrors.New(pkgerrors.CodeValidation, "mrp must be at least the selling price")
	}
	return nil
}

func normalizeSlug(slug string) string {
	slug = strings.ToLower(strings.TrimSpace(slug))
	return strings.ReplaceAll(slug, " ", "-")
}

func wrapNotFound(err error, entity string) error {
	if err == nil {
		return nil
	}
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating "+entity)
}
