package addresses

import (
	"context"
	goerrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

// AddressResponse is one saved delivery address.
type AddressResponse struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Line1     string    `json:"line1"`
	Line2     string    `json:"line2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateInput carries a new saved address.
type CreateInput struct {
	Type      string `json:"type" validate:"omitempty,oneof=home work other"`
	Line1     string `json:"line1" validate:"required,max=200"`
	Line2     string `json:"line2" validate:"max=200"`
	City      string `json:"city" validate:"required,max=100"`
	State     string `json:"state" validate:"required,max=100"`
	Pincode   string `json:"pincode" validate:"required,len=6,numeric"`
	IsDefault bool   `json:"is_default"`
}

// UpdateInput carries the editable address fields. Absent fields are
// left untouched.
type UpdateInput struct {
	Type      *string `json:"type" validate:"omitempty,oneof=home work other"`
	Line1     *string `json:"line1" validate:"omitempty,max=200"`
	Line2     *string `json:"line2" validate:"omitempty,max=200"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	State     *string `json:"state" validate:"omitempty,max=100"`
	Pincode   *string `json:"pincode" validate:"omitempty,len=6,numeric"`
	IsDefault *bool   `json:"is_default"`
}

// ServiceParams carries the dependencies for the address book service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes the authenticated user's saved addresses.
type Service interface {
	List(ctx context.Context, userID int64) ([]AddressResponse, error)
	Create(ctx context.Context, userID int64, input CreateInput) (*AddressResponse, error)
	Update(ctx context.Context, userID, addressID int64, input UpdateInput) (*AddressResponse, error)
	Delete(ctx context.Context, userID, addressID int64) error
}

type service struct {
	repo *Repository
}

// NewService constructs the address book service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) List(ctx context.Context, userID int64) ([]AddressResponse, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading addresses")
	}
	out := make([]AddressResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toResponse(row))
	}
	return out, nil
}

func (s *service) Create(ctx context.Context, userID int64, input CreateInput) (*AddressResponse, error) {
	addressType := strings.TrimSpace(input.Type)
	if addressType == "" {
		addressType = "home"
	}
	address := models.UserAddress{
		UserID:    userID,
		Type:      addressType,
		Line1:     strings.TrimSpace(input.Line1),
		Line2:     strings.TrimSpace(input.Line2),
		City:      strings.TrimSpace(input.City),
		State:     strings.TrimSpace(input.State),
		Pincode:   strings.TrimSpace(input.Pincode),
		IsDefault: input.IsDefault,
	}
	if err := s.repo.Create(ctx, &address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving address")
	}
	resp := toResponse(address)
	return &resp, nil
}

func (s *service) Update(ctx context.Context, userID, addressID int64, input UpdateInput) (*AddressResponse, error) {
	updates := map[string]any{}
	setTrimmed := func(column string, value *string) error {
		if value == nil {
			return nil
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" && column != "line2" {
			return pkgerrors.New(pkgerrors.CodeValidation, column+" cannot be empty")
		}
		updates[column] = trimmed
		return nil
	}
	for column, value := range map[string]*string{
		"type":    input.Type,
		"line1":   input.Line1,
		"line2":   input.Line2,
		"city":    input.City,
		"state":   input.State,
		"pincode": input.Pincode,
	} {
		if err := setTrimmed(column, value); err != nil {
			return nil, err
		}
	}
	if input.IsDefault != nil {
		updates["is_default"] = *input.IsDefault
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.Update(ctx, userID, addressID, updates); err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating address")
	}

	updated, err := s.repo.FindByUser(ctx, userID, addressID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading address")
	}
	resp := toResponse(*updated)
	return &resp, nil
}

func (s *service) Delete(ctx context.Context, userID, addressID int64) error {
	err := s.repo.Delete(ctx, userID, addressID)
	if goerrors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "removing address")
	}
	return nil
}

func toResponse(address models.UserAddress) AddressResponse {
	return AddressResponse{
		ID:        address.ID,
		Type:      address.Type,
		Line1:     address.Line1,
		Line2:     address.Line2,
		City:      address.City,
		State:     address.State,
		Pincode:   address.Pincode,
		IsDefault: address.IsDefault,
		CreatedAt: address.CreatedAt,
	}
}
