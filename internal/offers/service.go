package offers

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

// ServiceParams groups dependencies for the offer service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes business rules for coupons.
type Service interface {
	ListActive(ctx context.Context) ([]models.Offer, error)
	Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error)
	Create(ctx context.Context, input UpsertInput) (*models.Offer, error)
	Update(ctx context.Context, id int64, input UpsertInput) (*models.Offer, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService builds an offer service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer repo is required")
	}
	return &service{repo: params.Repo, now: time.Now}, nil
}

// ValidateInput carries the coupon candidate a customer wants to apply.
type ValidateInput struct {
	Code     string
	Subtotal decimal.Decimal
}

// ValidationResult reports the discount an eligible coupon yields.
type ValidationResult struct {
	Offer        *models.Offer   `json:"offer"`
	Discount     decimal.Decimal `json:"discount"`
	FreeDelivery bool            `json:"free_delivery"`
}

// UpsertInput carries the admin-managed offer fields.
type UpsertInput struct {
	Code          string
	Description   string
	DiscountType  enums.DiscountType
	DiscountValue decimal.Decimal
	MaxDiscount   *decimal.Decimal
	MinOrderValue decimal.Decimal
	ValidFrom     time.Time
	ValidUntil    time.Time
	UsageLimit    int
	IsActive      *bool
}

func (s *service) ListActive(ctx context.Context) ([]models.Offer, error) {
	offers, err := s.repo.ListActive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing offers")
	}
	return offers, nil
}

func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	offer, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading offer")
	}
	if err := CheckEligibility(offer, input.Subtotal, s.now()); err != nil {
		return nil, err
	}

	discount, freeDelivery := ComputeDiscount(offer, input.Subtotal)
	return &ValidationResult{
		Offer:        offer,
		Discount:     discount,
		FreeDelivery: freeDelivery,
	}, nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (*models.Offer, error) {
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking offer code")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}

	offer := &models.Offer{
		Code:          strings.ToUpper(strings.TrimSpace(input.Code)),
		Description:   input.Description,
		DiscountType:  input.DiscountType,
		DiscountValue: input.DiscountValue,
		MaxDiscount:   input.MaxDiscount,
		MinOrderValue: input.MinOrderValue,
		ValidFrom:     input.ValidFrom,
		ValidUntil:    input.ValidUntil,
		UsageLimit:    input.UsageLimit,
		IsActive:      isActive,
	}
	created, err := s.repo.Create(ctx, offer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating offer")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpsertInput) (*models.Offer, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	if err := validateUpsert(input); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"description":     input.Description,
		"discount_type":   input.DiscountType,
		"discount_value":  input.DiscountValue,
		"max_discount":    input.MaxDiscount,
		"min_order_value": input.MinOrderValue,
		"valid_from":      input.ValidFrom,
		"valid_until":     input.ValidUntil,
		"usage_limit":     input.UsageLimit,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "offer not found")
	}

	updated, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil || updated == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading offer")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id is required")
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "offer not found")
	}
	return nil
}

func validateUpsert(input UpsertInput) error {
	if strings.TrimSpace(input.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required")
	}
	if !input.DiscountType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if input.DiscountType != enums.DiscountTypeFreeDelivery && !input.DiscountValue.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.ValidUntil.Before(input.ValidFrom) {
		return pkgerrors.New(pkgerrors.CodeValidation, "validity window is inverted")
	}
	if input.UsageLimit < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage limit cannot be negative")
	}
	return nil
}
