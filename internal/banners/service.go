package banners

import (
	"context"
	goerrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

// ServiceParams carries the dependencies for the banner service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes storefront banners and their admin management.
type Service interface {
	ListLive(ctx context.Context) ([]BannerResponse, error)
	Create(ctx context.Context, input UpsertInput) (*BannerResponse, error)
	Update(ctx context.Context, id int64, input UpsertInput) (*BannerResponse, error)
	Delete(ctx context.Context, id int64) error
}

// BannerResponse is the public shape of a banner.
type BannerResponse struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	ImageURL     string     `json:"image_url"`
	LinkURL      string     `json:"link_url,omitempty"`
	DisplayOrder int        `json:"display_order"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
	IsActive     bool       `json:"is_active"`
}

// UpsertInput carries admin banner fields. Nil window bounds mean the
// banner is not time boxed on that side.
type UpsertInput struct {
	Title        string     `json:"title" validate:"required,max=200"`
	ImageURL     string     `json:"image_url" validate:"required,url"`
	LinkURL      string     `json:"link_url" validate:"omitempty,url"`
	DisplayOrder int        `json:"display_order" validate:"gte=0"`
	StartsAt     *time.Time `json:"starts_at"`
	EndsAt       *time.Time `json:"ends_at"`
	IsActive     *bool      `json:"is_active"`
}

type service struct {
	repo *Repository
	now  func() time.Time
}

// NewService constructs the banner service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner repo is required")
	}
	return &service{repo: params.Repo, now: time.Now}, nil
}

func (s *service) ListLive(ctx context.Context) ([]BannerResponse, error) {
	banners, err := s.repo.ListLive(ctx, s.now())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing banners")
	}
	out := make([]BannerResponse, 0, len(banners))
	for _, banner := range banners {
		out = append(out, toResponse(banner))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (*BannerResponse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	banner := &models.Banner{
		Title:        strings.TrimSpace(input.Title),
		ImageURL:     input.ImageURL,
		LinkURL:      input.LinkURL,
		DisplayOrder: input.DisplayOrder,
		StartsAt:     input.StartsAt,
		EndsAt:       input.EndsAt,
		IsActive:     true,
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}
	created, err := s.repo.Create(ctx, banner)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating banner")
	}
	resp := toResponse(*created)
	return &resp, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpsertInput) (*BannerResponse, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	updates := map[string]any{
		"title":         strings.TrimSpace(input.Title),
		"image_url":     input.ImageURL,
		"link_url":      input.LinkURL,
		"display_order": input.DisplayOrder,
		"starts_at":     input.StartsAt,
		"ends_at":       input.EndsAt,
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if err := s.repo.Update(ctx, id, updates); err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating banner")
	}
	banner, err := s.repo.FindByID(ctx, id)
	if err != nil || banner == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reloading banner")
	}
	resp := toResponse(*banner)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting banner")
	}
	return nil
}

func validateInput(input UpsertInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner title is required")
	}
	if strings.TrimSpace(input.ImageURL) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner image url is required")
	}
	if input.StartsAt != nil && input.EndsAt != nil && input.EndsAt.Before(*input.StartsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "banner window is inverted")
	}
	return nil
}

func toResponse(banner models.Banner) BannerResponse {
	return BannerResponse{
		ID:           banner.ID,
		Title:        banner.Title,
		ImageURL:     banner.ImageURL,
		LinkURL:      banner.LinkURL,
		DisplayOrder: banner.DisplayOrder,
		StartsAt:     banner.StartsAt,
		EndsAt:       banner.EndsAt,
		IsActive:     banner.IsActive,
	}
}
