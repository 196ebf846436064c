package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/quickcart/quickcart-backend/pkg/db/models"
	"github.com/quickcart/quickcart-backend/pkg/enums"
)

// Repository encapsulates user lookups for authentication.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an auth repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByPhone returns the user registered with the phone, nil when none.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAdminByUsername resolves an admin account by phone or email.
func (r *Repository) FindAdminByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("role = ?", enums.UserRoleAdmin).
		Where("phone = ? OR email = ?", username, username).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertByPhone returns the user for the phone, creating the account on
// first sign-in. The name is only written when the stored one is empty
// so later sign-ins never clobber a chosen display name.
func (r *Repository) UpsertByPhone(ctx context.Context, phone, name string) (*models.User, error) {
	user, err := r.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			Phone: phone,
			Name:  name,
			Role:  enums.UserRoleCustomer,
		}
		if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
			return nil, err
		}
		return user, nil
	}
	if user.Name == "" && name != "" {
		if err := r.db.WithContext(ctx).Model(user).Update("name", name).Error; err != nil {
			return nil, err
		}
		user.Name = name
	}
	return user, nil
}

// TouchLastLogin stamps the user's last successful sign-in.
func (r *Repository) TouchLastLogin(ctx context.Context, userID int64, when time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", when).Error
}
