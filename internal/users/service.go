package users

import (
	"context"
	goerrors "errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	pkgerrors "github.com/quickcart/quickcart-backend/pkg/errors"
)

// ProfileResponse is the signed-in user's own view of their account.
type ProfileResponse struct {
	ID        int64      `json:"id"`
	Phone     string     `json:"phone"`
	Name      string     `json:"name,omitempty"`
	Email     string     `json:"email,omitempty"`
	IsAdmin   bool       `json:"is_admin"`
	LastLogin *time.Time `json:"last_login_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// UpdateProfileInput carries the editable profile fields.
type UpdateProfileInput struct {
	Name  *string `json:"name" validate:"omitempty,max=120"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// ServiceParams carries the dependencies for the user profile service.
type ServiceParams struct {
	Repo *Repository
}

// Service exposes the current user's profile.
type Service interface {
	Get(ctx context.Context, userID int64) (*ProfileResponse, error)
	Update(ctx context.Context, userID int64, input UpdateProfileInput) (*ProfileResponse, error)
}

type service struct {
	repo *Repository
}

// NewService constructs the user profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Get(ctx context.Context, userID int64) (*ProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	if user == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	resp := toProfileResponse(*user)
	return &resp, nil
}

func (s *service) Update(ctx context.Context, userID int64, input UpdateProfileInput) (*ProfileResponse, error) {
	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		updates["name"] = name
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email == "" {
			updates["email"] = nil
		} else {
			updates["email"] = email
		}
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	if err := s.repo.Update(ctx, userID, updates); err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user")
	}
	return s.Get(ctx, userID)
}

func toProfileResponse(user models.User) ProfileResponse {
	resp := ProfileResponse{
		ID:        user.ID,
		Phone:     user.Phone,
		Name:      user.Name,
		IsAdmin:   user.IsAdmin(),
		LastLogin: user.LastLoginAt,
		CreatedAt: user.CreatedAt,
	}
	if user.Email != nil {
		resp.Email = *user.Email
	}
	return resp
}
