package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/pagination"
)

// ProductFilters narrows product listings.
type ProductFilters struct {
	CategoryID *int64
	Search     string
}

// CategoryResponse is the public shape of a category.
type CategoryResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	ImageURL     string `json:"image_url,omitempty"`
	DisplayOrder int    `json:"display_order"`
	IsActive     bool   `json:"is_active"`
}

// ProductResponse is the public shape of a product.
type ProductResponse struct {
	ID          int64           `json:"id"`
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ImageURL    string          `json:"image_url,omitempty"`
	Price       decimal.Decimal `json:"price"`
	MRP         decimal.Decimal `json:"mrp"`
	Unit        string          `json:"unit"`
	Stock       int             `json:"stock"`
	InStock     bool            `json:"in_stock"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductListResponse wraps a product page with pagination metadata.
type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Meta     pagination.Meta   `json:"meta"`
}

// CreateCategoryInput carries admin category creation fields.
type CreateCategoryInput struct {
	Name         string `json:"name" validate:"required,max=120"`
	Slug         string `json:"slug" validate:"required,max=120"`
	ImageURL     string `json:"image_url" validate:"omitempty,url"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// UpdateCategoryInput carries partial admin category updates.
type UpdateCategoryInput struct {
	Name         *string `json:"name" validate:"omitempty,max=120"`
	Slug         *string `json:"slug" validate:"omitempty,max=120"`
	ImageURL     *string `json:"image_url" validate:"omitempty,url"`
	DisplayOrder *int    `json:"display_order" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active"`
}

// CreateProductInput carries admin product creation fields.
type CreateProductInput struct {
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url" validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	MRP         decimal.Decimal `json:"mrp"`
	Unit        string          `json:"unit" validate:"required,max=40"`
	Stock       int             `json:"stock" validate:"gte=0"`
}

// UpdateProductInput carries partial admin product updates.
type UpdateProductInput struct {
	CategoryID  *int64           `json:"category_id" validate:"omitempty,gt=0"`
	Name        *string          `json:"name" validate:"omitempty,max=200"`
	Description *string          `json:"description"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price"`
	MRP         *decimal.Decimal `json:"mrp"`
	Unit        *string          `json:"unit" validate:"omitempty,max=40"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"is_active"`
}

func toCategoryResponse(category models.Category) CategoryResponse {
	return CategoryResponse{
		ID:           category.ID,
		Name:         category.Name,
		Slug:         category.Slug,
		ImageURL:     category.ImageURL,
		DisplayOrder: category.DisplayOrder,
		IsActive:     category.IsActive,
	}
}

func toProductResponse(product models.Product) ProductResponse {
	return ProductResponse{
		ID:          product.ID,
		CategoryID:  product.CategoryID,
		Name:        product.Name,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		Price:       product.Price,
		MRP:         product.MRP,
		Unit:        product.Unit,
		Stock:       product.Stock,
		InStock:     product.Stock > 0,
		IsActive:    product.IsActive,
		CreatedAt:   product.CreatedAt,
	}
}
